package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", NewNotFoundError("spot not found"), http.StatusNotFound},
		{"validation", NewValidationError("rating must be 1..5"), http.StatusBadRequest},
		{"unauthorized", NewUnauthorizedError("sign in"), http.StatusUnauthorized},
		{"forbidden", NewForbiddenError("not yours"), http.StatusForbidden},
		{"external", NewExternalError("store down", stderrors.New("timeout")), http.StatusBadGateway},
		{"wrapped", fmt.Errorf("loading: %w", NewNotFoundError("gone")), http.StatusNotFound},
		{"plain", stderrors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestAppError_ExposedAndUnwrap(t *testing.T) {
	cause := stderrors.New("connection reset")
	internal := NewInternalError("decode failed", cause)

	assert.False(t, internal.Exposed())
	assert.False(t, NewExternalError("x", nil).Exposed())
	assert.True(t, NewForbiddenError("x").Exposed())
	assert.ErrorIs(t, internal, cause)
	assert.Equal(t, "INTERNAL: decode failed: connection reset", internal.Error())
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(fmt.Errorf("wrap: %w", NewNotFoundError("gone"))))
	assert.False(t, IsNotFound(NewValidationError("bad")))
	assert.False(t, IsNotFound(nil))
}

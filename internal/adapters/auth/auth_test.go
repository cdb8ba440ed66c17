package auth

import (
	"context"
	"testing"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/snacktacular/backend/internal/domain/entities"
	apperrors "github.com/snacktacular/backend/pkg/errors"
)

type mockVerifier struct {
	mock.Mock
}

func (m *mockVerifier) VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error) {
	args := m.Called(ctx, idToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fbauth.Token), args.Error(1)
}

func TestFirebaseIdentityProvider_Verify(t *testing.T) {
	verifier := new(mockVerifier)
	verifier.On("VerifyIDToken", mock.Anything, "good").
		Return(&fbauth.Token{UID: "uid-1", Claims: map[string]interface{}{"email": "ann@bc.edu"}}, nil)
	verifier.On("VerifyIDToken", mock.Anything, "bad").
		Return(nil, assert.AnError)

	provider := &FirebaseIdentityProvider{client: verifier}

	principal, err := provider.Verify(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, &entities.Principal{UserID: "uid-1", Email: "ann@bc.edu"}, principal)

	_, err = provider.Verify(context.Background(), "bad")
	assert.Equal(t, apperrors.ErrorTypeUnauthorized, apperrors.TypeOf(err))

	_, err = provider.Verify(context.Background(), "")
	assert.Equal(t, apperrors.ErrorTypeUnauthorized, apperrors.TypeOf(err))
	verifier.AssertNumberOfCalls(t, "VerifyIDToken", 2)
}

func TestParseStaticTokens(t *testing.T) {
	tokens, err := ParseStaticTokens([]string{"t1=u1:a@b.c", "t2=u2"})
	require.NoError(t, err)
	assert.Equal(t, entities.Principal{UserID: "u1", Email: "a@b.c"}, tokens["t1"])
	assert.Equal(t, entities.Principal{UserID: "u2"}, tokens["t2"])

	_, err = ParseStaticTokens([]string{"broken"})
	assert.Error(t, err)
}

func TestStaticIdentityProvider_Verify(t *testing.T) {
	provider := NewStaticIdentityProvider(map[string]entities.Principal{"t1": {UserID: "u1"}})

	principal, err := provider.Verify(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "u1", principal.UserID)

	_, err = provider.Verify(context.Background(), "nope")
	assert.Equal(t, apperrors.ErrorTypeUnauthorized, apperrors.TypeOf(err))
}

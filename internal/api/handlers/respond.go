package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/snacktacular/backend/internal/infrastructure/observability"
	apperrors "github.com/snacktacular/backend/pkg/errors"
)

const maxJSONBody = 1 << 20

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithAppError maps an application error onto an HTTP status.
// Internal details are logged, never returned.
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Exposed() {
		respondWithError(w, status, appErr.Message)
		return
	}

	logger := observability.LoggerFromContext(r.Context())
	if status == http.StatusBadGateway {
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("Upstream failure")
		respondWithError(w, status, "upstream service unavailable")
		return
	}
	logger.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	respondWithError(w, http.StatusInternalServerError, "internal server error")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORSMiddleware adds CORS headers for the given origins. "*" allows any.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	wildcard := false
	for _, origin := range allowedOrigins {
		if origin == "*" {
			wildcard = true
		}
	}

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization", "If-None-Match"},
		ExposedHeaders: []string{"ETag", "X-Cache"},
		// Browsers refuse credentials with a wildcard origin.
		AllowCredentials: !wildcard,
		MaxAge:           600,
	})
	return c.Handler
}

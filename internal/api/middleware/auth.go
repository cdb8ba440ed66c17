package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/snacktacular/backend/internal/domain/entities"
	"github.com/snacktacular/backend/internal/domain/providers"
	"github.com/snacktacular/backend/internal/infrastructure/observability"
)

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p
func WithPrincipal(ctx context.Context, p *entities.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the authenticated identity, or nil
func PrincipalFromContext(ctx context.Context) *entities.Principal {
	p, _ := ctx.Value(principalKey{}).(*entities.Principal)
	return p
}

// AuthMiddleware resolves "Authorization: Bearer <token>" through identity.
// Requests without a token continue anonymously; a token that fails
// verification is rejected.
func AuthMiddleware(identity providers.IdentityProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := identity.Verify(r.Context(), token)
			if err != nil {
				observability.LoggerFromContext(r.Context()).Debug().Err(err).Msg("Rejected bearer token")
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"invalid token"}`))
				return
			}

			ctx := WithPrincipal(r.Context(), principal)
			ctx = observability.ContextWithUser(ctx, principal.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

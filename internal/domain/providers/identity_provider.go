package providers

import (
	"context"

	"github.com/snacktacular/backend/internal/domain/entities"
)

// IdentityProvider resolves a bearer token to the authenticated principal
type IdentityProvider interface {
	Verify(ctx context.Context, token string) (*entities.Principal, error)
}

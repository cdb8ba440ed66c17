package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/snacktacular/backend/internal/domain/entities"
	"github.com/snacktacular/backend/internal/domain/providers"
	apperrors "github.com/snacktacular/backend/pkg/errors"
)

// StaticIdentityProvider resolves a fixed set of bearer tokens. It backs
// local development and tests where Firebase Authentication is unavailable.
type StaticIdentityProvider struct {
	tokens map[string]entities.Principal
}

var _ providers.IdentityProvider = (*StaticIdentityProvider)(nil)

// NewStaticIdentityProvider creates a provider over token -> principal pairs
func NewStaticIdentityProvider(tokens map[string]entities.Principal) *StaticIdentityProvider {
	copied := make(map[string]entities.Principal, len(tokens))
	for token, principal := range tokens {
		copied[token] = principal
	}
	return &StaticIdentityProvider{tokens: copied}
}

// ParseStaticTokens parses entries of the form "token=userID" or
// "token=userID:email".
func ParseStaticTokens(entries []string) (map[string]entities.Principal, error) {
	tokens := make(map[string]entities.Principal, len(entries))
	for _, entry := range entries {
		token, identity, ok := strings.Cut(entry, "=")
		if !ok || token == "" || identity == "" {
			return nil, fmt.Errorf("invalid token entry %q", entry)
		}
		userID, email, _ := strings.Cut(identity, ":")
		tokens[token] = entities.Principal{UserID: userID, Email: email}
	}
	return tokens, nil
}

// Verify looks the token up
func (p *StaticIdentityProvider) Verify(ctx context.Context, token string) (*entities.Principal, error) {
	principal, ok := p.tokens[token]
	if !ok {
		return nil, apperrors.NewUnauthorizedError("invalid token")
	}
	return &principal, nil
}

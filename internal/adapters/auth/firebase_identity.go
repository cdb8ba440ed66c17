package auth

import (
	"context"

	fbauth "firebase.google.com/go/v4/auth"

	"github.com/snacktacular/backend/internal/domain/entities"
	"github.com/snacktacular/backend/internal/domain/providers"
	apperrors "github.com/snacktacular/backend/pkg/errors"
)

// tokenVerifier is the part of the Firebase auth client used here
type tokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// FirebaseIdentityProvider verifies Firebase Authentication ID tokens
type FirebaseIdentityProvider struct {
	client tokenVerifier
}

var _ providers.IdentityProvider = (*FirebaseIdentityProvider)(nil)

// NewFirebaseIdentityProvider creates an identity provider over a Firebase auth client
func NewFirebaseIdentityProvider(client *fbauth.Client) *FirebaseIdentityProvider {
	return &FirebaseIdentityProvider{client: client}
}

// Verify checks the ID token and returns its subject and email
func (p *FirebaseIdentityProvider) Verify(ctx context.Context, token string) (*entities.Principal, error) {
	if token == "" {
		return nil, apperrors.NewUnauthorizedError("missing token")
	}

	verified, err := p.client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, &apperrors.AppError{
			Type:    apperrors.ErrorTypeUnauthorized,
			Message: "invalid token",
			Err:     err,
		}
	}

	email, _ := verified.Claims["email"].(string)
	return &entities.Principal{UserID: verified.UID, Email: email}, nil
}

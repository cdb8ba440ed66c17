package services

import (
	"github.com/snacktacular/backend/internal/domain/entities"
	apperrors "github.com/snacktacular/backend/pkg/errors"
)

func requirePrincipal(p *entities.Principal) error {
	if p == nil || p.UserID == "" {
		return apperrors.NewUnauthorizedError("sign in required")
	}
	return nil
}

func requireOwner(p *entities.Principal, ownerID, what string) error {
	if ownerID != p.UserID {
		return apperrors.NewForbiddenError("only the author may change this " + what)
	}
	return nil
}

package handlers

import (
	"context"

	"github.com/snacktacular/backend/internal/application/services"
	"github.com/snacktacular/backend/internal/domain/entities"
	"github.com/snacktacular/backend/internal/domain/providers"
)

// SpotService is the spot behaviour the HTTP layer depends on
type SpotService interface {
	Save(ctx context.Context, p *entities.Principal, spot *entities.Spot) error
	Get(ctx context.Context, id string) (*entities.Spot, error)
	List(ctx context.Context, order services.SpotOrder, origin *providers.Coordinates) ([]*entities.Spot, error)
	Delete(ctx context.Context, p *entities.Principal, spot *entities.Spot) error
	Search(ctx context.Context, query string, limit int) ([]*entities.Spot, error)
}

// ReviewService is the review behaviour the HTTP layer depends on
type ReviewService interface {
	Save(ctx context.Context, p *entities.Principal, spot *entities.Spot, review *entities.Review) error
	Get(ctx context.Context, spotID, reviewID string) (*entities.Review, error)
	List(ctx context.Context, spotID string) ([]*entities.Review, error)
	Delete(ctx context.Context, p *entities.Principal, spot *entities.Spot, review *entities.Review) error
}

// PhotoService is the photo behaviour the HTTP layer depends on
type PhotoService interface {
	Save(ctx context.Context, p *entities.Principal, spot *entities.Spot, photo *entities.Photo) error
	Get(ctx context.Context, spotID, photoID string) (*entities.Photo, error)
	List(ctx context.Context, spotID string) ([]*entities.Photo, error)
	Delete(ctx context.Context, p *entities.Principal, spot *entities.Spot, photo *entities.Photo) error
}

// UserDirectory is the user lookup the HTTP layer depends on
type UserDirectory interface {
	List(ctx context.Context) ([]*entities.SnackUser, error)
	Get(ctx context.Context, id string) (*entities.SnackUser, error)
}

var (
	_ SpotService   = (*services.SpotService)(nil)
	_ ReviewService = (*services.ReviewService)(nil)
	_ PhotoService  = (*services.PhotoService)(nil)
	_ UserDirectory = (*services.UserDirectory)(nil)
)

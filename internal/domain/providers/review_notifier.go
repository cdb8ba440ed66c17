package providers

import (
	"context"

	"github.com/snacktacular/backend/internal/domain/entities"
)

// ReviewNotifier tells a spot's owner that a review was posted
type ReviewNotifier interface {
	NotifyReviewPosted(ctx context.Context, spot *entities.Spot, review *entities.Review) error
}

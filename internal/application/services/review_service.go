package services

import (
	"context"
	"sync"
	"time"

	"github.com/snacktacular/backend/internal/domain/entities"
	"github.com/snacktacular/backend/internal/domain/providers"
	"github.com/snacktacular/backend/internal/infrastructure/observability"
	apperrors "github.com/snacktacular/backend/pkg/errors"
)

const notifyTimeout = 10 * time.Second

// ReviewService handles review business logic
type ReviewService struct {
	store      providers.DocumentStore
	aggregator *RatingAggregator
	notifier   providers.ReviewNotifier

	pending sync.WaitGroup
}

// NewReviewService creates a new review service. notifier may be nil.
func NewReviewService(store providers.DocumentStore, aggregator *RatingAggregator, notifier providers.ReviewNotifier) *ReviewService {
	return &ReviewService{
		store:      store,
		aggregator: aggregator,
		notifier:   notifier,
	}
}

// Save creates or updates review under spot, then refreshes the spot's
// rating. A failed rating refresh does not fail the save. review is only
// modified once the write succeeds.
func (s *ReviewService) Save(ctx context.Context, p *entities.Principal, spot *entities.Spot, review *entities.Review) error {
	if err := requirePrincipal(p); err != nil {
		return err
	}
	if spot == nil || spot.IsNew() {
		return apperrors.NewValidationError("spot id is required")
	}
	if review == nil {
		return apperrors.NewValidationError("review is required")
	}

	collection := entities.ReviewsCollection(spot.ID)
	created := review.IsNew()

	doc := *review
	if created {
		stamped := entities.NewReview(p)
		if doc.ReviewUserID == "" {
			doc.ReviewUserID = stamped.ReviewUserID
			doc.ReviewUserEmail = stamped.ReviewUserEmail
		}
		if doc.Date.IsZero() {
			doc.Date = stamped.Date
		}
		id, err := s.store.Add(ctx, collection, doc.Document())
		if err != nil {
			return err
		}
		doc.ID = id
	} else {
		snap, err := s.store.Get(ctx, collection, review.ID)
		if err != nil {
			return err
		}
		existing := entities.ReviewFromDocument(snap.ID, snap.Data)
		if err := requireOwner(p, existing.ReviewUserID, "review"); err != nil {
			return err
		}

		doc.ReviewUserID = existing.ReviewUserID
		doc.ReviewUserEmail = existing.ReviewUserEmail
		doc.Date = existing.Date
		if err := s.store.Set(ctx, collection, doc.ID, doc.Document()); err != nil {
			return err
		}
	}
	*review = doc

	_ = s.aggregator.Recompute(ctx, spot)

	if created {
		s.notify(ctx, spot, review)
	}
	return nil
}

// Get retrieves one review of a spot
func (s *ReviewService) Get(ctx context.Context, spotID, reviewID string) (*entities.Review, error) {
	if spotID == "" || reviewID == "" {
		return nil, apperrors.NewValidationError("spot id and review id are required")
	}
	snap, err := s.store.Get(ctx, entities.ReviewsCollection(spotID), reviewID)
	if err != nil {
		return nil, err
	}
	return entities.ReviewFromDocument(snap.ID, snap.Data), nil
}

// List returns the reviews of a spot, newest first
func (s *ReviewService) List(ctx context.Context, spotID string) ([]*entities.Review, error) {
	if spotID == "" {
		return nil, apperrors.NewValidationError("spot id is required")
	}
	docs, err := s.store.List(ctx, entities.ReviewsCollection(spotID))
	if err != nil {
		return nil, err
	}

	reviews := make([]*entities.Review, 0, len(docs))
	for _, doc := range docs {
		reviews = append(reviews, entities.ReviewFromDocument(doc.ID, doc.Data))
	}
	SortReviewsNewestFirst(reviews)
	return reviews, nil
}

// Delete removes review from spot, then refreshes the spot's rating
func (s *ReviewService) Delete(ctx context.Context, p *entities.Principal, spot *entities.Spot, review *entities.Review) error {
	if err := requirePrincipal(p); err != nil {
		return err
	}
	if spot == nil || spot.IsNew() || review == nil || review.IsNew() {
		return apperrors.NewValidationError("spot id and review id are required")
	}

	collection := entities.ReviewsCollection(spot.ID)
	snap, err := s.store.Get(ctx, collection, review.ID)
	switch {
	case apperrors.IsNotFound(err):
	case err != nil:
		return err
	default:
		if err := requireOwner(p, entities.ReviewFromDocument(snap.ID, snap.Data).ReviewUserID, "review"); err != nil {
			return err
		}
		if err := s.store.Delete(ctx, collection, review.ID); err != nil {
			return err
		}
	}

	_ = s.aggregator.Recompute(ctx, spot)
	return nil
}

// WaitNotifications blocks until in-flight review notifications finish
func (s *ReviewService) WaitNotifications() {
	s.pending.Wait()
}

func (s *ReviewService) notify(ctx context.Context, spot *entities.Spot, review *entities.Review) {
	if s.notifier == nil {
		return
	}

	spotCopy := *spot
	reviewCopy := *review
	bg := context.WithoutCancel(ctx)

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		notifyCtx, cancel := context.WithTimeout(bg, notifyTimeout)
		defer cancel()

		if err := s.notifier.NotifyReviewPosted(notifyCtx, &spotCopy, &reviewCopy); err != nil {
			observability.LoggerFromContext(notifyCtx).Warn().
				Err(err).
				Str("spot_id", spotCopy.ID).
				Str("review_id", reviewCopy.ID).
				Msg("Failed to send review notification")
		}
	}()
}

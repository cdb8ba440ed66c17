package services

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/snacktacular/backend/internal/domain/entities"
	"github.com/snacktacular/backend/internal/domain/providers"
	"github.com/snacktacular/backend/internal/infrastructure/observability"
	apperrors "github.com/snacktacular/backend/pkg/errors"
	"github.com/snacktacular/backend/pkg/retry"
)

// ComputeRating returns the mean of ratings rounded half away from zero to
// one decimal place, and the number of ratings. No ratings yields 0.0.
func ComputeRating(ratings []int) (float64, int) {
	count := len(ratings)
	if count == 0 {
		return 0.0, 0
	}

	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return math.Round(float64(sum)*10/float64(count)) / 10, count
}

// RatingAggregator keeps a spot's averageRating and numberOfReviews in line
// with its reviews. Recomputes for the same spot are serialized.
type RatingAggregator struct {
	store     providers.DocumentStore
	retry     retry.Config
	metrics   *observability.Metrics
	onFailure func(spotID string)

	mu    sync.Mutex
	locks map[string]*spotLock
}

type spotLock struct {
	mu   sync.Mutex
	refs int
}

// NewRatingAggregator creates an aggregator that tries to persist each
// recomputation up to persistAttempts times.
func NewRatingAggregator(store providers.DocumentStore, persistAttempts int) *RatingAggregator {
	cfg := retry.QuickConfig(persistAttempts)
	cfg.Retryable = isTransient

	return &RatingAggregator{
		store: store,
		retry: cfg,
		locks: make(map[string]*spotLock),
	}
}

// WithMetrics records recompute counts on metrics
func (a *RatingAggregator) WithMetrics(metrics *observability.Metrics) *RatingAggregator {
	a.metrics = metrics
	return a
}

// OnPersistFailure registers fn to receive spot ids whose recompute failed
func (a *RatingAggregator) OnPersistFailure(fn func(spotID string)) {
	a.onFailure = fn
}

// Recompute reloads the spot's reviews, updates spot in place and persists
// the new rating fields onto the latest stored copy of the spot.
func (a *RatingAggregator) Recompute(ctx context.Context, spot *entities.Spot) error {
	if spot == nil || spot.ID == "" {
		return apperrors.NewValidationError("spot id is required")
	}

	unlock := a.lock(spot.ID)
	defer unlock()

	ctx, span := observability.StartSpan(ctx, "rating.recompute")
	defer span.End()

	err := a.recompute(ctx, spot)
	observability.RecordError(span, err)
	observability.RecordRatingRecompute(ctx, a.metrics, spot.ID, err)

	if err != nil {
		observability.LoggerFromContext(ctx).Error().
			Err(err).
			Str("spot_id", spot.ID).
			Msg("Failed to update spot rating")
		if a.onFailure != nil {
			a.onFailure(spot.ID)
		}
	}
	return err
}

// WithSpotLock runs fn while holding the lock that serializes recomputes
// of spotID. Read-modify-writes of a spot document take it so a concurrent
// recompute cannot be overwritten with a stale rating.
func (a *RatingAggregator) WithSpotLock(spotID string, fn func() error) error {
	unlock := a.lock(spotID)
	defer unlock()
	return fn()
}

func (a *RatingAggregator) recompute(ctx context.Context, spot *entities.Spot) error {
	docs, err := a.store.List(ctx, entities.ReviewsCollection(spot.ID))
	if err != nil {
		return fmt.Errorf("list reviews: %w", err)
	}

	ratings := make([]int, 0, len(docs))
	for _, doc := range docs {
		ratings = append(ratings, entities.ReviewFromDocument(doc.ID, doc.Data).Rating)
	}
	average, count := ComputeRating(ratings)

	spot.AverageRating = average
	spot.NumberOfReviews = count

	logger := observability.LoggerFromContext(ctx)
	return retry.DoWithLog(ctx, a.retry, "rating", func() error {
		return a.persist(ctx, spot.ID, average, count)
	}, func(attempt int, err error, nextDelay time.Duration) {
		logger.Warn().Err(err).Str("spot_id", spot.ID).Int("attempt", attempt).Dur("retry_in", nextDelay).Msg("Retrying spot rating update")
	})
}

func (a *RatingAggregator) persist(ctx context.Context, spotID string, average float64, count int) error {
	snap, err := a.store.Get(ctx, entities.SpotsCollection, spotID)
	if apperrors.IsNotFound(err) {
		// The spot is gone; there is nothing left to keep consistent.
		return nil
	}
	if err != nil {
		return err
	}

	latest := entities.SpotFromDocument(spotID, snap.Data)
	latest.AverageRating = average
	latest.NumberOfReviews = count
	return a.store.Set(ctx, entities.SpotsCollection, spotID, latest.Document())
}

func (a *RatingAggregator) lock(spotID string) func() {
	a.mu.Lock()
	l, ok := a.locks[spotID]
	if !ok {
		l = &spotLock{}
		a.locks[spotID] = l
	}
	l.refs++
	a.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		a.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(a.locks, spotID)
		}
		a.mu.Unlock()
	}
}

func isTransient(err error) bool {
	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeInternal, apperrors.ErrorTypeExternal:
		return true
	default:
		return false
	}
}

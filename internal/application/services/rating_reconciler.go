package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/snacktacular/backend/internal/domain/entities"
	"github.com/snacktacular/backend/internal/domain/providers"
	"github.com/snacktacular/backend/internal/infrastructure/observability"
	apperrors "github.com/snacktacular/backend/pkg/errors"
)

// RatingReconciler repairs spot ratings whose recompute could not be
// persisted, and can sweep every spot on a schedule.
type RatingReconciler struct {
	store      providers.DocumentStore
	aggregator *RatingAggregator

	mu      sync.Mutex
	pending map[string]struct{}
}

// NewRatingReconciler creates a reconciler and subscribes it to the
// aggregator's persist failures.
func NewRatingReconciler(store providers.DocumentStore, aggregator *RatingAggregator) *RatingReconciler {
	r := &RatingReconciler{
		store:      store,
		aggregator: aggregator,
		pending:    make(map[string]struct{}),
	}
	aggregator.OnPersistFailure(r.Enqueue)
	return r
}

// Enqueue marks a spot for reconciliation
func (r *RatingReconciler) Enqueue(spotID string) {
	r.mu.Lock()
	r.pending[spotID] = struct{}{}
	r.mu.Unlock()
}

// Pending returns the queued spot ids in sorted order
func (r *RatingReconciler) Pending() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.pending))
	for id := range r.pending {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ReconcileSpot recomputes a single spot
func (r *RatingReconciler) ReconcileSpot(ctx context.Context, spotID string) error {
	snap, err := r.store.Get(ctx, entities.SpotsCollection, spotID)
	if err != nil {
		return err
	}
	return r.aggregator.Recompute(ctx, entities.SpotFromDocument(snap.ID, snap.Data))
}

// DrainPending reconciles every queued spot. Spots that fail again stay
// queued for the next drain.
func (r *RatingReconciler) DrainPending(ctx context.Context) (int, error) {
	r.mu.Lock()
	ids := make([]string, 0, len(r.pending))
	for id := range r.pending {
		ids = append(ids, id)
	}
	r.pending = make(map[string]struct{})
	r.mu.Unlock()

	sort.Strings(ids)
	return r.reconcile(ctx, ids)
}

// ReconcileAll recomputes every spot in the store
func (r *RatingReconciler) ReconcileAll(ctx context.Context) (int, error) {
	docs, err := r.store.List(ctx, entities.SpotsCollection)
	if err != nil {
		return 0, err
	}

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}
	return r.reconcile(ctx, ids)
}

func (r *RatingReconciler) reconcile(ctx context.Context, ids []string) (int, error) {
	var errs []error
	done := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		err := r.ReconcileSpot(ctx, id)
		if apperrors.IsNotFound(err) {
			// Deleted since it was queued.
			continue
		}
		if err != nil {
			// Recompute failures are queued by the aggregator; this also
			// covers a failed load of the spot itself.
			r.Enqueue(id)
			errs = append(errs, err)
			continue
		}
		done++
	}
	return done, errors.Join(errs...)
}

// Run drains the failure queue every interval and sweeps all spots every
// sweepEvery ticks (0 disables sweeping). It returns when ctx is done.
func (r *RatingReconciler) Run(ctx context.Context, interval time.Duration, sweepEvery int) {
	logger := observability.LoggerFromContext(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	tick := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick++
			if n, err := r.DrainPending(ctx); err != nil {
				logger.Warn().Err(err).Int("reconciled", n).Msg("Rating reconciliation incomplete")
			} else if n > 0 {
				logger.Info().Int("reconciled", n).Msg("Reconciled queued spot ratings")
			}

			if sweepEvery > 0 && tick%sweepEvery == 0 {
				if n, err := r.ReconcileAll(ctx); err != nil {
					logger.Warn().Err(err).Int("reconciled", n).Msg("Rating sweep incomplete")
				}
			}
		}
	}
}

package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snacktacular/backend/internal/adapters/database"
	"github.com/snacktacular/backend/internal/application/services"
	"github.com/snacktacular/backend/internal/domain/entities"
	apperrors "github.com/snacktacular/backend/pkg/errors"
)

func TestComputeRating(t *testing.T) {
	tests := []struct {
		name    string
		ratings []int
		average float64
		count   int
	}{
		{"no reviews", nil, 0.0, 0},
		{"single", []int{4}, 4.0, 1},
		{"whole mean", []int{3, 4, 5}, 4.0, 3},
		{"half", []int{1, 2}, 1.5, 2},
		{"rounds down", []int{1, 1, 2}, 1.3, 3},
		{"rounds up", []int{1, 2, 2}, 1.7, 3},
		{"half away from zero", []int{1, 1, 1, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2}, 1.9, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			average, count := services.ComputeRating(tt.ratings)
			assert.Equal(t, tt.average, average)
			assert.Equal(t, tt.count, count)
		})
	}
}

func addReview(t *testing.T, store *database.MemoryStore, spotID string, rating int) string {
	t.Helper()
	review := entities.NewReview(alice)
	review.Rating = rating
	id, err := store.Add(context.Background(), entities.ReviewsCollection(spotID), review.Document())
	require.NoError(t, err)
	return id
}

func TestRatingAggregator_RecomputeUpdatesSpotAndStore(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	spot := seedSpot(t, store, alice, "Deli")
	for _, r := range []int{3, 4, 5} {
		addReview(t, store, spot.ID, r)
	}

	aggregator := services.NewRatingAggregator(store, 3)
	require.NoError(t, aggregator.Recompute(ctx, spot))

	assert.Equal(t, 4.0, spot.AverageRating)
	assert.Equal(t, 3, spot.NumberOfReviews)

	snap, err := store.Get(ctx, entities.SpotsCollection, spot.ID)
	require.NoError(t, err)
	stored := entities.SpotFromDocument(snap.ID, snap.Data)
	assert.Equal(t, 4.0, stored.AverageRating)
	assert.Equal(t, 3, stored.NumberOfReviews)
	assert.Equal(t, "Deli", stored.Name)
}

func TestRatingAggregator_NoReviewsResetsRating(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	spot := seedSpot(t, store, alice, "Deli")
	spot.AverageRating = 4.5
	spot.NumberOfReviews = 2

	require.NoError(t, services.NewRatingAggregator(store, 1).Recompute(ctx, spot))

	assert.Equal(t, 0.0, spot.AverageRating)
	assert.Equal(t, 0, spot.NumberOfReviews)
}

func TestRatingAggregator_KeepsLatestSpotFields(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	spot := seedSpot(t, store, alice, "Deli")
	addReview(t, store, spot.ID, 2)

	renamed := *spot
	renamed.Name = "Renamed Deli"
	require.NoError(t, store.Set(ctx, entities.SpotsCollection, spot.ID, renamed.Document()))

	require.NoError(t, services.NewRatingAggregator(store, 1).Recompute(ctx, spot))

	snap, err := store.Get(ctx, entities.SpotsCollection, spot.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed Deli", snap.Data.String("name", ""))
	assert.Equal(t, 2.0, snap.Data.Float("averageRating", 0))
}

func TestRatingAggregator_DeletedSpotIsNotRecreated(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	spot := &entities.Spot{ID: "gone"}

	require.NoError(t, services.NewRatingAggregator(store, 1).Recompute(ctx, spot))

	_, err := store.Get(ctx, entities.SpotsCollection, "gone")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestRatingAggregator_RetriesTransientFailures(t *testing.T) {
	ctx := context.Background()
	store := newFlakyStore(entities.SpotsCollection, 2, apperrors.NewInternalError("unavailable", nil))
	spot := seedSpot(t, store.MemoryStore, alice, "Deli")
	addReview(t, store.MemoryStore, spot.ID, 5)

	require.NoError(t, services.NewRatingAggregator(store, 3).Recompute(ctx, spot))

	assert.Equal(t, 3, store.calls())
	snap, err := store.Get(ctx, entities.SpotsCollection, spot.ID)
	require.NoError(t, err)
	assert.Equal(t, 5.0, snap.Data.Float("averageRating", 0))
}

func TestRatingAggregator_DoesNotRetryPermanentFailures(t *testing.T) {
	ctx := context.Background()
	store := newFlakyStore(entities.SpotsCollection, -1, apperrors.NewForbiddenError("denied"))
	spot := seedSpot(t, store.MemoryStore, alice, "Deli")

	var failed []string
	aggregator := services.NewRatingAggregator(store, 5)
	aggregator.OnPersistFailure(func(id string) { failed = append(failed, id) })

	err := aggregator.Recompute(ctx, spot)
	require.Error(t, err)
	assert.Equal(t, 1, store.calls())
	assert.Equal(t, []string{spot.ID}, failed)
}

func TestRatingAggregator_RequiresSpotID(t *testing.T) {
	err := services.NewRatingAggregator(database.NewMemoryStore(), 1).Recompute(context.Background(), entities.NewSpot())
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.TypeOf(err))
}

func TestRatingReconciler_DrainsFailedSpots(t *testing.T) {
	ctx := context.Background()
	store := newFlakyStore(entities.SpotsCollection, 1, apperrors.NewInternalError("unavailable", nil))
	spot := seedSpot(t, store.MemoryStore, alice, "Deli")
	addReview(t, store.MemoryStore, spot.ID, 4)

	aggregator := services.NewRatingAggregator(store, 1)
	reconciler := services.NewRatingReconciler(store, aggregator)

	require.Error(t, aggregator.Recompute(ctx, spot))
	assert.Equal(t, []string{spot.ID}, reconciler.Pending())

	n, err := reconciler.DrainPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, reconciler.Pending())

	snap, err := store.Get(ctx, entities.SpotsCollection, spot.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, snap.Data.Float("averageRating", 0))
	assert.Equal(t, 1, snap.Data.Int("numberOfReviews", 0))
}

func TestRatingReconciler_ReconcileAll(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	first := seedSpot(t, store, alice, "First")
	second := seedSpot(t, store, bob, "Second")
	addReview(t, store, first.ID, 1)
	addReview(t, store, first.ID, 2)
	addReview(t, store, second.ID, 5)

	reconciler := services.NewRatingReconciler(store, services.NewRatingAggregator(store, 1))
	n, err := reconciler.ReconcileAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	snap, err := store.Get(ctx, entities.SpotsCollection, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.5, snap.Data.Float("averageRating", 0))

	snap, err = store.Get(ctx, entities.SpotsCollection, second.ID)
	require.NoError(t, err)
	assert.Equal(t, 5.0, snap.Data.Float("averageRating", 0))
}

func TestRatingReconciler_ReconcileSpotMissing(t *testing.T) {
	store := database.NewMemoryStore()
	reconciler := services.NewRatingReconciler(store, services.NewRatingAggregator(store, 1))

	err := reconciler.ReconcileSpot(context.Background(), "missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestRatingReconciler_DrainSkipsDeletedSpots(t *testing.T) {
	store := database.NewMemoryStore()
	reconciler := services.NewRatingReconciler(store, services.NewRatingAggregator(store, 1))
	reconciler.Enqueue("gone")

	n, err := reconciler.DrainPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, reconciler.Pending())
}

func TestRatingReconciler_FailedLoadStaysQueued(t *testing.T) {
	ctx := context.Background()
	store := &brokenGetStore{MemoryStore: database.NewMemoryStore(), collection: entities.SpotsCollection}
	spot := seedSpot(t, store.MemoryStore, alice, "Deli")
	addReview(t, store.MemoryStore, spot.ID, 2)

	reconciler := services.NewRatingReconciler(store, services.NewRatingAggregator(store, 1))
	reconciler.Enqueue(spot.ID)

	store.setBroken(true)
	n, err := reconciler.DrainPending(ctx)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeInternal, apperrors.TypeOf(err))
	assert.Equal(t, 0, n)
	assert.Equal(t, []string{spot.ID}, reconciler.Pending())

	store.setBroken(false)
	n, err = reconciler.DrainPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, reconciler.Pending())

	snap, err := store.Get(ctx, entities.SpotsCollection, spot.ID)
	require.NoError(t, err)
	assert.Equal(t, 2.0, snap.Data.Float("averageRating", 0))
}

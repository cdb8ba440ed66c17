package services

import (
	"context"
	"strings"

	"github.com/snacktacular/backend/internal/domain/entities"
	"github.com/snacktacular/backend/internal/domain/providers"
	"github.com/snacktacular/backend/internal/infrastructure/observability"
	apperrors "github.com/snacktacular/backend/pkg/errors"
)

// DefaultSearchLimit caps search results when the caller gives no limit
const DefaultSearchLimit = 20

// SpotService handles spot business logic
type SpotService struct {
	store   providers.DocumentStore
	blobs   providers.BlobStore
	search  providers.SpotSearchRepository
	ratings *RatingAggregator
}

// NewSpotService creates a new spot service. blobs and search may be nil.
func NewSpotService(store providers.DocumentStore, blobs providers.BlobStore, search providers.SpotSearchRepository) *SpotService {
	return &SpotService{
		store:  store,
		blobs:  blobs,
		search: search,
	}
}

// WithRatings makes updates hold the aggregator's per-spot lock
func (s *SpotService) WithRatings(aggregator *RatingAggregator) *SpotService {
	s.ratings = aggregator
	return s
}

// Save creates spot when it has no id, otherwise updates it. The id is
// assigned only after a successful create, and spot is left untouched when
// the write fails.
func (s *SpotService) Save(ctx context.Context, p *entities.Principal, spot *entities.Spot) error {
	if err := requirePrincipal(p); err != nil {
		return err
	}
	if spot == nil {
		return apperrors.NewValidationError("spot is required")
	}

	var err error
	if spot.IsNew() {
		err = s.create(ctx, p, spot)
	} else if s.ratings != nil {
		err = s.ratings.WithSpotLock(spot.ID, func() error {
			return s.update(ctx, p, spot)
		})
	} else {
		err = s.update(ctx, p, spot)
	}
	if err != nil {
		return err
	}

	s.index(ctx, spot)
	return nil
}

func (s *SpotService) create(ctx context.Context, p *entities.Principal, spot *entities.Spot) error {
	doc := *spot
	doc.PostingUserID = p.UserID
	doc.AverageRating = 0
	doc.NumberOfReviews = 0

	id, err := s.store.Add(ctx, entities.SpotsCollection, doc.Document())
	if err != nil {
		return err
	}
	doc.ID = id
	*spot = doc
	return nil
}

func (s *SpotService) update(ctx context.Context, p *entities.Principal, spot *entities.Spot) error {
	existing, err := s.Get(ctx, spot.ID)
	if err != nil {
		return err
	}
	if err := requireOwner(p, existing.PostingUserID, "spot"); err != nil {
		return err
	}

	// Ratings belong to the aggregator and ownership never moves.
	doc := *spot
	doc.PostingUserID = existing.PostingUserID
	doc.AverageRating = existing.AverageRating
	doc.NumberOfReviews = existing.NumberOfReviews
	if err := s.store.Set(ctx, entities.SpotsCollection, doc.ID, doc.Document()); err != nil {
		return err
	}
	*spot = doc
	return nil
}

// Get retrieves a spot by id
func (s *SpotService) Get(ctx context.Context, id string) (*entities.Spot, error) {
	if id == "" {
		return nil, apperrors.NewValidationError("spot id is required")
	}
	snap, err := s.store.Get(ctx, entities.SpotsCollection, id)
	if err != nil {
		return nil, err
	}
	return entities.SpotFromDocument(snap.ID, snap.Data), nil
}

// List returns all spots in the requested order
func (s *SpotService) List(ctx context.Context, order SpotOrder, origin *providers.Coordinates) ([]*entities.Spot, error) {
	docs, err := s.store.List(ctx, entities.SpotsCollection)
	if err != nil {
		return nil, err
	}

	spots := make([]*entities.Spot, 0, len(docs))
	for _, doc := range docs {
		spots = append(spots, entities.SpotFromDocument(doc.ID, doc.Data))
	}
	if err := SortSpots(spots, order, origin); err != nil {
		return nil, err
	}
	return spots, nil
}

// Delete removes a spot with its reviews and photos. Children are removed
// best-effort; the spot document itself must delete cleanly.
func (s *SpotService) Delete(ctx context.Context, p *entities.Principal, spot *entities.Spot) error {
	if err := requirePrincipal(p); err != nil {
		return err
	}
	if spot == nil || spot.IsNew() {
		return apperrors.NewValidationError("spot id is required")
	}

	existing, err := s.Get(ctx, spot.ID)
	if apperrors.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := requireOwner(p, existing.PostingUserID, "spot"); err != nil {
		return err
	}

	logger := observability.LoggerFromContext(ctx).With().Str("spot_id", spot.ID).Logger()

	s.deleteChildren(ctx, entities.ReviewsCollection(spot.ID), nil)
	s.deleteChildren(ctx, entities.PhotosCollection(spot.ID), func(photoID string) {
		if s.blobs == nil {
			return
		}
		if err := s.blobs.Delete(ctx, spot.ID, photoID); err != nil {
			logger.Warn().Err(err).Str("photo_id", photoID).Msg("Failed to delete photo blob")
		}
	})

	if err := s.store.Delete(ctx, entities.SpotsCollection, spot.ID); err != nil {
		return err
	}

	if s.search != nil {
		if err := s.search.Delete(ctx, spot.ID); err != nil {
			logger.Warn().Err(err).Msg("Failed to remove spot from search index")
		}
	}
	return nil
}

func (s *SpotService) deleteChildren(ctx context.Context, collection string, after func(id string)) {
	logger := observability.LoggerFromContext(ctx)

	docs, err := s.store.List(ctx, collection)
	if err != nil {
		logger.Warn().Err(err).Str("collection", collection).Msg("Failed to list child documents")
		return
	}
	for _, doc := range docs {
		if err := s.store.Delete(ctx, collection, doc.ID); err != nil {
			logger.Warn().Err(err).Str("collection", collection).Str("id", doc.ID).Msg("Failed to delete child document")
			continue
		}
		if after != nil {
			after(doc.ID)
		}
	}
}

// Search finds spots by name or address. Without a search index it scans
// the collection.
func (s *SpotService) Search(ctx context.Context, query string, limit int) ([]*entities.Spot, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.NewValidationError("query is required")
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	if s.search != nil {
		spots, err := s.search.Search(ctx, query, limit)
		if err == nil {
			return spots, nil
		}
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("Search index unavailable, scanning spots")
	}

	all, err := s.List(ctx, SpotOrderName, nil)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	results := []*entities.Spot{}
	for _, spot := range all {
		if strings.Contains(strings.ToLower(spot.Name), needle) || strings.Contains(strings.ToLower(spot.Address), needle) {
			results = append(results, spot)
			if len(results) == limit {
				break
			}
		}
	}
	return results, nil
}

// Reindex pushes every stored spot into the search index
func (s *SpotService) Reindex(ctx context.Context) (int, error) {
	if s.search == nil {
		return 0, apperrors.NewValidationError("search index is not configured")
	}

	spots, err := s.List(ctx, SpotOrderName, nil)
	if err != nil {
		return 0, err
	}
	for i, spot := range spots {
		if err := s.search.Index(ctx, spot); err != nil {
			return i, err
		}
	}
	return len(spots), nil
}

func (s *SpotService) index(ctx context.Context, spot *entities.Spot) {
	if s.search == nil {
		return
	}
	if err := s.search.Index(ctx, spot); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("spot_id", spot.ID).Msg("Failed to index spot")
	}
}

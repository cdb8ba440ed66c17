package search

import (
	"context"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/snacktacular/backend/internal/domain/entities"
	"github.com/snacktacular/backend/internal/domain/providers"
	tsclient "github.com/snacktacular/backend/internal/infrastructure/clients/typesense"
	"github.com/snacktacular/backend/pkg/document"
	apperrors "github.com/snacktacular/backend/pkg/errors"
)

const defaultSearchLimit = 20

// TypesenseAdapter implements spot search using Typesense
type TypesenseAdapter struct {
	client *tsclient.Client
}

var _ providers.SpotSearchRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// InitSchema ensures the collection exists
func (a *TypesenseAdapter) InitSchema(ctx context.Context) error {
	return a.client.InitSchema(ctx)
}

// Index inserts or replaces a spot
func (a *TypesenseAdapter) Index(ctx context.Context, spot *entities.Spot) error {
	_, err := a.client.Client().Collection(tsclient.SpotsCollection).Documents().Upsert(ctx, spotDocument(spot))
	if err != nil {
		return apperrors.NewExternalError("failed to index spot", err)
	}
	return nil
}

// Delete removes a spot from index
func (a *TypesenseAdapter) Delete(ctx context.Context, id string) error {
	_, err := a.client.Client().Collection(tsclient.SpotsCollection).Document(id).Delete(ctx)
	if err != nil {
		return apperrors.NewExternalError("failed to delete spot from index", err)
	}
	return nil
}

// Search matches query against spot names and addresses
func (a *TypesenseAdapter) Search(ctx context.Context, query string, limit int) ([]*entities.Spot, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if query == "" {
		query = "*"
	}

	params := &api.SearchCollectionParams{
		Q:       pointer.String(query),
		QueryBy: pointer.String("name,address"),
		SortBy:  pointer.String("_text_match:desc,average_rating:desc"),
		PerPage: pointer.Int(limit),
	}

	result, err := a.client.Client().Collection(tsclient.SpotsCollection).Documents().Search(ctx, params)
	if err != nil {
		return nil, apperrors.NewExternalError("failed to search spots", err)
	}

	spots := []*entities.Spot{}
	if result.Hits == nil {
		return spots, nil
	}
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		spots = append(spots, spotFromHit(*hit.Document))
	}
	return spots, nil
}

func spotDocument(spot *entities.Spot) map[string]interface{} {
	return map[string]interface{}{
		"id":                spot.ID,
		"name":              spot.Name,
		"address":           spot.Address,
		"location":          []float64{spot.Latitude, spot.Longitude},
		"average_rating":    spot.AverageRating,
		"number_of_reviews": spot.NumberOfReviews,
		"posting_user_id":   spot.PostingUserID,
	}
}

func spotFromHit(hit map[string]interface{}) *entities.Spot {
	doc := document.Document(hit)
	spot := &entities.Spot{
		ID:              doc.String("id", ""),
		Name:            doc.String("name", ""),
		Address:         doc.String("address", ""),
		AverageRating:   doc.Float("average_rating", 0),
		NumberOfReviews: doc.Int("number_of_reviews", 0),
		PostingUserID:   doc.String("posting_user_id", ""),
	}

	if loc, ok := hit["location"].([]interface{}); ok && len(loc) == 2 {
		point := document.Document{"lat": loc[0], "lon": loc[1]}
		spot.Latitude = point.Float("lat", 0)
		spot.Longitude = point.Float("lon", 0)
	}
	return spot
}


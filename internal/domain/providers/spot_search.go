package providers

import (
	"context"

	"github.com/snacktacular/backend/internal/domain/entities"
)

// SpotSearchRepository indexes spots for free-text search (e.g. Typesense)
type SpotSearchRepository interface {
	// Index inserts or replaces a spot in the index
	Index(ctx context.Context, spot *entities.Spot) error

	// Delete removes a spot from the index
	Delete(ctx context.Context, id string) error

	// Search returns spots whose name or address matches query
	Search(ctx context.Context, query string, limit int) ([]*entities.Spot, error)
}

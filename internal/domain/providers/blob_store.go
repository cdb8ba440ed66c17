package providers

import "context"

// BlobStore stores photo bytes keyed by (spotID, photoID)
type BlobStore interface {
	// Upload stores data and returns a durable URL for it
	Upload(ctx context.Context, spotID, photoID string, data []byte, contentType string) (string, error)

	// Delete removes the stored bytes
	Delete(ctx context.Context, spotID, photoID string) error
}

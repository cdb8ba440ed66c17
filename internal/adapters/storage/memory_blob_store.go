package storage

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/snacktacular/backend/internal/domain/providers"
	apperrors "github.com/snacktacular/backend/pkg/errors"
)

// Blob is a stored object held by MemoryBlobStore
type Blob struct {
	Data        []byte
	ContentType string
}

// MemoryBlobStore keeps photos in process memory and serves them from baseURL
type MemoryBlobStore struct {
	mu      sync.RWMutex
	baseURL string
	blobs   map[string]Blob
}

var _ providers.BlobStore = (*MemoryBlobStore)(nil)

// NewMemoryBlobStore creates an empty store; URLs are baseURL + "/" + object name
func NewMemoryBlobStore(baseURL string) *MemoryBlobStore {
	return &MemoryBlobStore{baseURL: baseURL, blobs: make(map[string]Blob)}
}

// Upload stores a copy of data
func (s *MemoryBlobStore) Upload(ctx context.Context, spotID, photoID string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", apperrors.NewExternalError("failed to upload photo", err)
	}

	name := ObjectName(spotID, photoID)
	s.mu.Lock()
	s.blobs[name] = Blob{Data: append([]byte(nil), data...), ContentType: contentType}
	s.mu.Unlock()

	return fmt.Sprintf("%s/%s", s.baseURL, name), nil
}

// Delete removes a stored photo
func (s *MemoryBlobStore) Delete(ctx context.Context, spotID, photoID string) error {
	s.mu.Lock()
	delete(s.blobs, ObjectName(spotID, photoID))
	s.mu.Unlock()
	return nil
}

// Get returns a stored photo
func (s *MemoryBlobStore) Get(spotID, photoID string) (Blob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.blobs[ObjectName(spotID, photoID)]
	return blob, ok
}

// ServeHTTP serves GET {prefix}/{spotId}/{photoId} so in-memory download URLs resolve
func (s *MemoryBlobStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	blob, ok := s.Get(r.PathValue("spotId"), r.PathValue("photoId"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", blob.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(blob.Data)))
	_, _ = w.Write(blob.Data)
}

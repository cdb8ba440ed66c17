package database

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/snacktacular/backend/internal/domain/providers"
	"github.com/snacktacular/backend/pkg/document"
	apperrors "github.com/snacktacular/backend/pkg/errors"
)

// MemoryStore is an in-process DocumentStore used for development and tests
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]document.Document
	hub         *listenerHub
}

var _ providers.DocumentStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory document store
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		collections: make(map[string]map[string]document.Document),
	}
	s.hub = newListenerHub(s.List)
	return s
}

// Add stores doc under a generated identifier
func (s *MemoryStore) Add(ctx context.Context, collection string, doc document.Document) (string, error) {
	id := uuid.NewString()
	if err := s.Set(ctx, collection, id, doc); err != nil {
		return "", err
	}
	return id, nil
}

// Set creates or overwrites the document at id
func (s *MemoryStore) Set(ctx context.Context, collection, id string, doc document.Document) error {
	if id == "" {
		return apperrors.NewValidationError("document id is required")
	}
	if err := ctx.Err(); err != nil {
		return apperrors.NewInternalError("failed to set document", err)
	}

	s.mu.Lock()
	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]document.Document)
	}
	s.collections[collection][id] = doc.Clone()
	s.mu.Unlock()

	s.hub.notify(collection)
	return nil
}

// Get retrieves a single document
func (s *MemoryStore) Get(ctx context.Context, collection, id string) (*document.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("document %s/%s not found", collection, id))
	}
	return &document.Snapshot{ID: id, Data: doc.Clone()}, nil
}

// Delete removes the document at id. Deleting a missing document succeeds.
func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return apperrors.NewInternalError("failed to delete document", err)
	}

	s.mu.Lock()
	_, existed := s.collections[collection][id]
	delete(s.collections[collection], id)
	s.mu.Unlock()

	if existed {
		s.hub.notify(collection)
	}
	return nil
}

// List returns every document of a collection ordered by id
func (s *MemoryStore) List(ctx context.Context, collection string) ([]document.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to list documents", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]document.Snapshot, 0, len(s.collections[collection]))
	for id, doc := range s.collections[collection] {
		docs = append(docs, document.Snapshot{ID: id, Data: doc.Clone()})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

// Listen delivers the collection now and after every write to it
func (s *MemoryStore) Listen(ctx context.Context, collection string, handler providers.SnapshotHandler) (providers.Subscription, error) {
	return s.hub.subscribe(ctx, collection, handler), nil
}

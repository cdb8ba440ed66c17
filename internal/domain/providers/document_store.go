package providers

import (
	"context"

	"github.com/snacktacular/backend/pkg/document"
)

// SnapshotHandler receives the full current result set of a collection, or
// the error that interrupted delivery.
type SnapshotHandler func(docs []document.Snapshot, err error)

// Subscription is a standing live-query registration owned by the caller.
type Subscription interface {
	// Stop releases the registration. It is safe to call more than once.
	Stop()
}

// DocumentStore defines the operations the application needs from a
// document database organised as (possibly nested) named collections.
type DocumentStore interface {
	// Add stores doc under a backend-generated identifier and returns it
	Add(ctx context.Context, collection string, doc document.Document) (string, error)

	// Set creates or overwrites the document at id
	Set(ctx context.Context, collection, id string, doc document.Document) error

	// Get retrieves a single document
	Get(ctx context.Context, collection, id string) (*document.Snapshot, error)

	// Delete removes the document at id
	Delete(ctx context.Context, collection, id string) error

	// List returns every document of a collection
	List(ctx context.Context, collection string) ([]document.Snapshot, error)

	// Listen delivers the full result set to handler now and after every change
	Listen(ctx context.Context, collection string, handler SnapshotHandler) (Subscription, error)
}

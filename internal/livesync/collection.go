// Package livesync mirrors a document store collection into an in-memory,
// decoded and ordered list that is rebuilt on every snapshot.
package livesync

import (
	"context"
	"sort"
	"sync"

	"github.com/snacktacular/backend/internal/domain/entities"
	"github.com/snacktacular/backend/internal/domain/providers"
	"github.com/snacktacular/backend/internal/infrastructure/observability"
	"github.com/snacktacular/backend/pkg/document"
)

// Decoder turns a stored document into an item
type Decoder[T any] func(id string, doc document.Document) T

// Option configures a Collection
type Option[T any] func(*Collection[T])

// WithOrder sorts items with less after every rebuild
func WithOrder[T any](less func(a, b T) bool) Option[T] {
	return func(c *Collection[T]) {
		c.less = less
	}
}

// Collection is a live, ordered mirror of one collection path
type Collection[T any] struct {
	store  providers.DocumentStore
	path   string
	decode Decoder[T]
	less   func(a, b T) bool

	mu         sync.Mutex
	items      []T
	sub        providers.Subscription
	generation uint64
	lastErr    error
}

// New creates an unloaded collection over path
func New[T any](store providers.DocumentStore, path string, decode Decoder[T], opts ...Option[T]) *Collection[T] {
	c := &Collection[T]{
		store:  store,
		path:   path,
		decode: decode,
		items:  []T{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Path returns the mirrored collection path
func (c *Collection[T]) Path() string {
	return c.path
}

// Load registers for live updates, replacing any earlier registration.
// completed runs after every snapshot, including ones that failed.
func (c *Collection[T]) Load(ctx context.Context, completed func()) error {
	c.mu.Lock()
	if c.sub != nil {
		c.sub.Stop()
		c.sub = nil
	}
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	logger := observability.LoggerFromContext(ctx).With().Str("collection", c.path).Logger()

	handler := func(docs []document.Snapshot, err error) {
		c.mu.Lock()
		if gen != c.generation {
			c.mu.Unlock()
			return
		}
		if err != nil {
			c.lastErr = err
			c.mu.Unlock()
			logger.Error().Err(err).Msg("Live query failed")
		} else {
			c.items = c.rebuild(docs)
			c.lastErr = nil
			c.mu.Unlock()
		}

		if completed != nil {
			completed()
		}
	}

	sub, err := c.store.Listen(ctx, c.path, handler)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		// Replaced or closed while registering.
		sub.Stop()
		return nil
	}
	c.sub = sub
	return nil
}

func (c *Collection[T]) rebuild(docs []document.Snapshot) []T {
	items := make([]T, 0, len(docs))
	for _, doc := range docs {
		items = append(items, c.decode(doc.ID, doc.Data))
	}
	if c.less != nil {
		sort.SliceStable(items, func(i, j int) bool {
			return c.less(items[i], items[j])
		})
	}
	return items
}

// Items returns a copy of the current list
func (c *Collection[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.items...)
}

// Err returns the error of the latest failed snapshot, if the list has not
// been rebuilt since.
func (c *Collection[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Close stops live updates. Items keeps returning the last list.
func (c *Collection[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	if c.sub != nil {
		c.sub.Stop()
		c.sub = nil
	}
}

// NewSpots mirrors the spots collection
func NewSpots(store providers.DocumentStore, opts ...Option[*entities.Spot]) *Collection[*entities.Spot] {
	return New(store, entities.SpotsCollection, entities.SpotFromDocument, opts...)
}

// NewReviews mirrors the reviews of one spot
func NewReviews(store providers.DocumentStore, spotID string, opts ...Option[*entities.Review]) *Collection[*entities.Review] {
	return New(store, entities.ReviewsCollection(spotID), entities.ReviewFromDocument, opts...)
}

// NewPhotos mirrors the photos of one spot
func NewPhotos(store providers.DocumentStore, spotID string, opts ...Option[*entities.Photo]) *Collection[*entities.Photo] {
	return New(store, entities.PhotosCollection(spotID), entities.PhotoFromDocument, opts...)
}

// NewSnackUsers mirrors the user directory
func NewSnackUsers(store providers.DocumentStore, opts ...Option[*entities.SnackUser]) *Collection[*entities.SnackUser] {
	return New(store, entities.UsersCollection, entities.SnackUserFromDocument, opts...)
}

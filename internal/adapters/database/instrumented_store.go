package database

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/snacktacular/backend/internal/domain/providers"
	"github.com/snacktacular/backend/internal/infrastructure/observability"
	"github.com/snacktacular/backend/pkg/document"
)

// InstrumentedStore wraps a DocumentStore with tracing spans and
// operation duration metrics.
type InstrumentedStore struct {
	next    providers.DocumentStore
	backend string
	metrics *observability.Metrics
}

var _ providers.DocumentStore = (*InstrumentedStore)(nil)

// NewInstrumentedStore decorates next. metrics may be nil.
func NewInstrumentedStore(next providers.DocumentStore, backend string, metrics *observability.Metrics) *InstrumentedStore {
	return &InstrumentedStore{next: next, backend: backend, metrics: metrics}
}

func (s *InstrumentedStore) observe(ctx context.Context, op, collection string) (context.Context, func(error)) {
	ctx, span := observability.StartSpan(ctx, "store."+op)
	observability.SetSpanAttributes(span,
		attribute.String("store.backend", s.backend),
		attribute.String("store.collection", collection),
	)
	start := time.Now()

	return ctx, func(err error) {
		observability.RecordError(span, err)
		observability.RecordStoreMetric(ctx, s.metrics, s.backend, op, time.Since(start))
		span.End()
	}
}

// Add implements DocumentStore
func (s *InstrumentedStore) Add(ctx context.Context, collection string, doc document.Document) (string, error) {
	ctx, done := s.observe(ctx, "add", collection)
	id, err := s.next.Add(ctx, collection, doc)
	done(err)
	return id, err
}

// Set implements DocumentStore
func (s *InstrumentedStore) Set(ctx context.Context, collection, id string, doc document.Document) error {
	ctx, done := s.observe(ctx, "set", collection)
	err := s.next.Set(ctx, collection, id, doc)
	done(err)
	return err
}

// Get implements DocumentStore
func (s *InstrumentedStore) Get(ctx context.Context, collection, id string) (*document.Snapshot, error) {
	ctx, done := s.observe(ctx, "get", collection)
	snap, err := s.next.Get(ctx, collection, id)
	done(err)
	return snap, err
}

// Delete implements DocumentStore
func (s *InstrumentedStore) Delete(ctx context.Context, collection, id string) error {
	ctx, done := s.observe(ctx, "delete", collection)
	err := s.next.Delete(ctx, collection, id)
	done(err)
	return err
}

// List implements DocumentStore
func (s *InstrumentedStore) List(ctx context.Context, collection string) ([]document.Snapshot, error) {
	ctx, done := s.observe(ctx, "list", collection)
	docs, err := s.next.List(ctx, collection)
	done(err)
	return docs, err
}

// Listen implements DocumentStore. Only registration is traced.
func (s *InstrumentedStore) Listen(ctx context.Context, collection string, handler providers.SnapshotHandler) (providers.Subscription, error) {
	_, done := s.observe(ctx, "listen", collection)
	sub, err := s.next.Listen(ctx, collection, handler)
	done(err)
	return sub, err
}

package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"

	"github.com/snacktacular/backend/internal/domain/entities"
	"github.com/snacktacular/backend/internal/domain/providers"
	"github.com/snacktacular/backend/internal/infrastructure/clients/postgres"
	"github.com/snacktacular/backend/internal/infrastructure/observability"
	"github.com/snacktacular/backend/pkg/document"
	apperrors "github.com/snacktacular/backend/pkg/errors"
)

const documentsTable = "documents"

const documentsSchema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (collection, id)
)`

// PostgresStore implements DocumentStore over a single JSONB table keyed by
// (collection, id). When an event bus is configured, writes are announced
// on the collection's channel so listeners on other instances refetch.
type PostgresStore struct {
	client *postgres.Client
	db     *goqu.Database
	bus    providers.EventBus
	hub    *listenerHub
}

var _ providers.DocumentStore = (*PostgresStore)(nil)

// NewPostgresStore creates a new PostgreSQL document store. bus may be nil.
func NewPostgresStore(client *postgres.Client, bus providers.EventBus) *PostgresStore {
	s := &PostgresStore{
		client: client,
		db:     goqu.New("postgres", client.DB()),
		bus:    bus,
	}
	s.hub = newListenerHub(s.List)
	return s
}

// EnsureSchema creates the documents table if it does not exist
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.client.DB().ExecContext(ctx, documentsSchema); err != nil {
		return apperrors.NewInternalError("failed to create documents table", err)
	}
	return nil
}

// Add stores doc under a generated identifier
func (s *PostgresStore) Add(ctx context.Context, collection string, doc document.Document) (string, error) {
	id := uuid.NewString()
	if err := s.upsert(ctx, collection, id, doc); err != nil {
		return "", err
	}
	s.changed(ctx, collection, id, entities.ChangeTypeAdded)
	return id, nil
}

// Set creates or overwrites the document at id
func (s *PostgresStore) Set(ctx context.Context, collection, id string, doc document.Document) error {
	if id == "" {
		return apperrors.NewValidationError("document id is required")
	}
	if err := s.upsert(ctx, collection, id, doc); err != nil {
		return err
	}
	s.changed(ctx, collection, id, entities.ChangeTypeModified)
	return nil
}

func (s *PostgresStore) upsert(ctx context.Context, collection, id string, doc document.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return apperrors.NewValidationError(fmt.Sprintf("document is not serializable: %v", err))
	}

	now := time.Now().UTC()
	query, args, err := s.db.Insert(documentsTable).
		Rows(goqu.Record{
			"collection": collection,
			"id":         id,
			"data":       string(data),
			"updated_at": now,
		}).
		OnConflict(goqu.DoUpdate("collection, id", goqu.Record{
			"data":       goqu.L("EXCLUDED.data"),
			"updated_at": goqu.L("EXCLUDED.updated_at"),
		})).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build upsert query", err)
	}

	if _, err := s.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to write document", err)
	}
	return nil
}

// Get retrieves a single document
func (s *PostgresStore) Get(ctx context.Context, collection, id string) (*document.Snapshot, error) {
	query, args, err := s.db.From(documentsTable).
		Select("data").
		Where(goqu.Ex{"collection": collection, "id": id}).
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build select query", err)
	}

	var raw []byte
	err = s.client.DB().QueryRowContext(ctx, query, args...).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("document %s/%s not found", collection, id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get document", err)
	}

	return &document.Snapshot{ID: id, Data: decodeJSONDocument(ctx, raw)}, nil
}

// Delete removes the document at id. Deleting a missing document succeeds.
func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	query, args, err := s.db.Delete(documentsTable).
		Where(goqu.Ex{"collection": collection, "id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := s.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete document", err)
	}

	if rows, err := result.RowsAffected(); err == nil && rows > 0 {
		s.changed(ctx, collection, id, entities.ChangeTypeRemoved)
	}
	return nil
}

// List returns every document of a collection ordered by id
func (s *PostgresStore) List(ctx context.Context, collection string) ([]document.Snapshot, error) {
	query, args, err := s.db.From(documentsTable).
		Select("id", "data").
		Where(goqu.Ex{"collection": collection}).
		Order(goqu.I("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := s.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list documents", err)
	}
	defer rows.Close()

	docs := []document.Snapshot{}
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, apperrors.NewInternalError("failed to scan document", err)
		}
		docs = append(docs, document.Snapshot{ID: id, Data: decodeJSONDocument(ctx, raw)})
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate documents", err)
	}

	return docs, nil
}

// Listen delivers the collection now and after every write to it, including
// writes announced by other instances on the event bus.
func (s *PostgresStore) Listen(ctx context.Context, collection string, handler providers.SnapshotHandler) (providers.Subscription, error) {
	l := s.hub.newListener(collection, handler)

	if s.bus != nil {
		subCtx, cancel := context.WithCancel(context.Background())
		events, err := s.bus.Subscribe(subCtx, providers.GetCollectionChannel(collection))
		if err != nil {
			cancel()
			return nil, apperrors.NewExternalError("failed to subscribe to collection changes", err)
		}
		l.onStop = cancel
		go func() {
			for range events {
				l.poke()
			}
		}()
	}

	s.hub.start(ctx, l)
	return l, nil
}

func (s *PostgresStore) changed(ctx context.Context, collection, id string, change entities.ChangeType) {
	s.hub.notify(collection)
	if s.bus == nil {
		return
	}

	event := entities.NewCollectionEvent(collection, id, change)
	if err := s.bus.Publish(ctx, providers.GetCollectionChannel(collection), event); err != nil {
		observability.LoggerFromContext(ctx).Warn().
			Err(err).
			Str("collection", collection).
			Str("document_id", id).
			Msg("Failed to publish collection change")
	}
}

// decodeJSONDocument tolerates corrupt rows by decoding them as empty
// documents, so hydration falls back to per-field defaults.
func decodeJSONDocument(ctx context.Context, raw []byte) document.Document {
	doc := document.Document{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("Stored document is not valid JSON")
		return document.Document{}
	}
	return doc
}

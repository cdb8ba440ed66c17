package database

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snacktacular/backend/internal/domain/entities"
	"github.com/snacktacular/backend/internal/infrastructure/clients/postgres"
	"github.com/snacktacular/backend/pkg/document"
	apperrors "github.com/snacktacular/backend/pkg/errors"
)

type fakeBus struct {
	mu        sync.Mutex
	published []*entities.CollectionEvent
	channels  []string
	events    chan *entities.CollectionEvent
}

func newFakeBus() *fakeBus {
	return &fakeBus{events: make(chan *entities.CollectionEvent, 10)}
}

func (b *fakeBus) Publish(ctx context.Context, channel string, event *entities.CollectionEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.channels = append(b.channels, channel)
	b.published = append(b.published, event)
	return nil
}

func (b *fakeBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.CollectionEvent, error) {
	return b.events, nil
}


func (b *fakeBus) Close() error { return nil }

func newMockPostgresStore(t *testing.T, bus *fakeBus) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	if bus == nil {
		return NewPostgresStore(postgres.NewFromDB(db), nil), mock
	}
	return NewPostgresStore(postgres.NewFromDB(db), bus), mock
}

func TestPostgresStore_SetUpserts(t *testing.T) {
	store, mock := newMockPostgresStore(t, nil)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "documents"`) + `.*ON CONFLICT \(collection, id\) DO UPDATE`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Set(context.Background(), "spots", "s1", document.Document{"name": "Deli"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AddReturnsGeneratedID(t *testing.T) {
	bus := newFakeBus()
	store, mock := newMockPostgresStore(t, bus)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "documents"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := store.Add(context.Background(), "spots/s1/reviews", document.Document{"rating": 4})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	require.Len(t, bus.published, 1)
	assert.Equal(t, "collection:spots/s1/reviews", bus.channels[0])
	assert.Equal(t, id, bus.published[0].DocumentID)
	assert.Equal(t, entities.ChangeTypeAdded, bus.published[0].ChangeType)
}

func TestPostgresStore_WriteFailure(t *testing.T) {
	bus := newFakeBus()
	store, mock := newMockPostgresStore(t, bus)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "documents"`)).
		WillReturnError(assert.AnError)

	id, err := store.Add(context.Background(), "spots", document.Document{})
	assert.Error(t, err)
	assert.Empty(t, id)
	assert.Empty(t, bus.published)
}

func TestPostgresStore_Get(t *testing.T) {
	store, mock := newMockPostgresStore(t, nil)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "data" FROM "documents"`)).
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow([]byte(`{"name":"Deli","numberOfReviews":3}`)))

	snap, err := store.Get(context.Background(), "spots", "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", snap.ID)
	assert.Equal(t, "Deli", snap.Data.String("name", ""))
	assert.Equal(t, 3, snap.Data.Int("numberOfReviews", 0))
}

func TestPostgresStore_GetNotFound(t *testing.T) {
	store, mock := newMockPostgresStore(t, nil)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "data" FROM "documents"`)).
		WillReturnRows(sqlmock.NewRows([]string{"data"}))

	_, err := store.Get(context.Background(), "spots", "missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestPostgresStore_ListToleratesCorruptRows(t *testing.T) {
	store, mock := newMockPostgresStore(t, nil)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id", "data" FROM "documents"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "data"}).
			AddRow("a", []byte(`{"name":"A"}`)).
			AddRow("b", []byte(`not json`)))

	docs, err := store.List(context.Background(), "spots")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "A", docs[0].Data.String("name", ""))
	assert.Equal(t, "b", docs[1].ID)
	assert.Empty(t, docs[1].Data)
}

func TestPostgresStore_DeleteMissingIsQuiet(t *testing.T) {
	bus := newFakeBus()
	store, mock := newMockPostgresStore(t, bus)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "documents"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Delete(context.Background(), "spots", "gone"))
	assert.Empty(t, bus.published)
}

func TestPostgresStore_ListenRefetchesOnBusEvent(t *testing.T) {
	bus := newFakeBus()
	store, mock := newMockPostgresStore(t, bus)

	listQuery := regexp.QuoteMeta(`SELECT "id", "data" FROM "documents"`)
	mock.ExpectQuery(listQuery).
		WillReturnRows(sqlmock.NewRows([]string{"id", "data"}))
	mock.ExpectQuery(listQuery).
		WillReturnRows(sqlmock.NewRows([]string{"id", "data"}).AddRow("a", []byte(`{}`)))

	rec := &snapshotRecorder{}
	sub, err := store.Listen(context.Background(), "spots", rec.handle)
	require.NoError(t, err)
	defer sub.Stop()

	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)

	bus.events <- entities.NewCollectionEvent("spots", "a", entities.ChangeTypeAdded)
	require.Eventually(t, func() bool { return len(rec.last()) == 1 }, time.Second, 5*time.Millisecond)
	assert.NoError(t, mock.ExpectationsWereMet())
}

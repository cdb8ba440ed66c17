package services_test

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/snacktacular/backend/internal/adapters/database"
	"github.com/snacktacular/backend/internal/domain/entities"
	"github.com/snacktacular/backend/internal/domain/providers"
	"github.com/snacktacular/backend/pkg/document"
	apperrors "github.com/snacktacular/backend/pkg/errors"
)

// Mocks

type MockDocumentStore struct {
	mock.Mock
}

func (m *MockDocumentStore) Add(ctx context.Context, collection string, doc document.Document) (string, error) {
	args := m.Called(ctx, collection, doc)
	return args.String(0), args.Error(1)
}

func (m *MockDocumentStore) Set(ctx context.Context, collection, id string, doc document.Document) error {
	args := m.Called(ctx, collection, id, doc)
	return args.Error(0)
}

func (m *MockDocumentStore) Get(ctx context.Context, collection, id string) (*document.Snapshot, error) {
	args := m.Called(ctx, collection, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*document.Snapshot), args.Error(1)
}

func (m *MockDocumentStore) Delete(ctx context.Context, collection, id string) error {
	args := m.Called(ctx, collection, id)
	return args.Error(0)
}

func (m *MockDocumentStore) List(ctx context.Context, collection string) ([]document.Snapshot, error) {
	args := m.Called(ctx, collection)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]document.Snapshot), args.Error(1)
}

func (m *MockDocumentStore) Listen(ctx context.Context, collection string, handler providers.SnapshotHandler) (providers.Subscription, error) {
	args := m.Called(ctx, collection, handler)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(providers.Subscription), args.Error(1)
}

type MockBlobStore struct {
	mock.Mock
}

func (m *MockBlobStore) Upload(ctx context.Context, spotID, photoID string, data []byte, contentType string) (string, error) {
	args := m.Called(ctx, spotID, photoID, data, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockBlobStore) Delete(ctx context.Context, spotID, photoID string) error {
	args := m.Called(ctx, spotID, photoID)
	return args.Error(0)
}

type MockReviewNotifier struct {
	mock.Mock
}

func (m *MockReviewNotifier) NotifyReviewPosted(ctx context.Context, spot *entities.Spot, review *entities.Review) error {
	args := m.Called(ctx, spot, review)
	return args.Error(0)
}

type MockSpotSearch struct {
	mock.Mock
}

func (m *MockSpotSearch) Index(ctx context.Context, spot *entities.Spot) error {
	args := m.Called(ctx, spot)
	return args.Error(0)
}

func (m *MockSpotSearch) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSpotSearch) Search(ctx context.Context, query string, limit int) ([]*entities.Spot, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Spot), args.Error(1)
}

// flakyStore fails writes to one collection until failures runs out
type flakyStore struct {
	*database.MemoryStore

	mu         sync.Mutex
	collection string
	failures   int
	err        error
	setCalls   int
}

func newFlakyStore(collection string, failures int, err error) *flakyStore {
	return &flakyStore{
		MemoryStore: database.NewMemoryStore(),
		collection:  collection,
		failures:    failures,
		err:         err,
	}
}

func (s *flakyStore) Set(ctx context.Context, collection, id string, doc document.Document) error {
	s.mu.Lock()
	if collection == s.collection {
		s.setCalls++
		if s.failures != 0 {
			if s.failures > 0 {
				s.failures--
			}
			s.mu.Unlock()
			return s.err
		}
	}
	s.mu.Unlock()
	return s.MemoryStore.Set(ctx, collection, id, doc)
}

func (s *flakyStore) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setCalls
}

var (
	alice = &entities.Principal{UserID: "alice", Email: "alice@example.com"}
	bob   = &entities.Principal{UserID: "bob", Email: "bob@example.com"}
)

// seedSpot stores a spot owned by owner and returns it
func seedSpot(t interface{ Helper() }, store providers.DocumentStore, owner *entities.Principal, name string) *entities.Spot {
	t.Helper()
	spot := &entities.Spot{Name: name, PostingUserID: owner.UserID}
	id, err := store.Add(context.Background(), entities.SpotsCollection, spot.Document())
	if err != nil {
		panic(err)
	}
	spot.ID = id
	return spot
}

// brokenGetStore fails reads of one collection while broken is set
type brokenGetStore struct {
	*database.MemoryStore

	mu         sync.Mutex
	collection string
	broken     bool
}

func (s *brokenGetStore) setBroken(broken bool) {
	s.mu.Lock()
	s.broken = broken
	s.mu.Unlock()
}

func (s *brokenGetStore) Get(ctx context.Context, collection, id string) (*document.Snapshot, error) {
	s.mu.Lock()
	broken := s.broken && collection == s.collection
	s.mu.Unlock()
	if broken {
		return nil, apperrors.NewInternalError("store unavailable", nil)
	}
	return s.MemoryStore.Get(ctx, collection, id)
}

// beforeSpotSet runs hook once, just before the next write of a spot
type beforeSpotSet struct {
	*database.MemoryStore

	once sync.Once
	hook func()
}

func (s *beforeSpotSet) Set(ctx context.Context, collection, id string, doc document.Document) error {
	if collection == entities.SpotsCollection && s.hook != nil {
		s.once.Do(s.hook)
	}
	return s.MemoryStore.Set(ctx, collection, id, doc)
}

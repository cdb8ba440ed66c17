package database

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/snacktacular/backend/internal/domain/providers"
	"github.com/snacktacular/backend/pkg/document"
	apperrors "github.com/snacktacular/backend/pkg/errors"
)

// FirestoreStore implements DocumentStore on Cloud Firestore. Collection
// paths such as "spots/{id}/reviews" address subcollections directly.
type FirestoreStore struct {
	client *firestore.Client
}

var _ providers.DocumentStore = (*FirestoreStore)(nil)

// NewFirestoreStore creates a new Firestore document store
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

// Add stores doc under a Firestore-generated identifier
func (s *FirestoreStore) Add(ctx context.Context, collection string, doc document.Document) (string, error) {
	ref, _, err := s.client.Collection(collection).Add(ctx, map[string]interface{}(doc))
	if err != nil {
		return "", apperrors.NewInternalError("failed to add document", err)
	}
	return ref.ID, nil
}

// Set creates or overwrites the document at id
func (s *FirestoreStore) Set(ctx context.Context, collection, id string, doc document.Document) error {
	if id == "" {
		return apperrors.NewValidationError("document id is required")
	}
	if _, err := s.client.Collection(collection).Doc(id).Set(ctx, map[string]interface{}(doc)); err != nil {
		return apperrors.NewInternalError("failed to write document", err)
	}
	return nil
}

// Get retrieves a single document
func (s *FirestoreStore) Get(ctx context.Context, collection, id string) (*document.Snapshot, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("document %s/%s not found", collection, id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get document", err)
	}
	return toSnapshot(snap), nil
}

// Delete removes the document at id. Deleting a missing document succeeds.
func (s *FirestoreStore) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.client.Collection(collection).Doc(id).Delete(ctx); err != nil {
		return apperrors.NewInternalError("failed to delete document", err)
	}
	return nil
}

// List returns every document of a collection
func (s *FirestoreStore) List(ctx context.Context, collection string) ([]document.Snapshot, error) {
	iter := s.client.Collection(collection).Documents(ctx)
	defer iter.Stop()

	docs := []document.Snapshot{}
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, apperrors.NewInternalError("failed to list documents", err)
		}
		docs = append(docs, *toSnapshot(snap))
	}
	return docs, nil
}

// Listen attaches a Firestore snapshot listener to the collection
func (s *FirestoreStore) Listen(ctx context.Context, collection string, handler providers.SnapshotHandler) (providers.Subscription, error) {
	listenCtx, cancel := context.WithCancel(ctx)
	it := s.client.Collection(collection).Snapshots(listenCtx)
	sub := &firestoreSubscription{cancel: cancel, it: it}

	go func() {
		for {
			qs, err := it.Next()
			if listenCtx.Err() != nil {
				return
			}
			if err != nil {
				if status.Code(err) != codes.Canceled {
					handler(nil, apperrors.NewExternalError("snapshot listener failed", err))
				}
				return
			}

			snaps, err := qs.Documents.GetAll()
			if err != nil {
				handler(nil, apperrors.NewExternalError("failed to read snapshot", err))
				continue
			}

			docs := make([]document.Snapshot, 0, len(snaps))
			for _, snap := range snaps {
				docs = append(docs, *toSnapshot(snap))
			}
			handler(docs, nil)
		}
	}()

	return sub, nil
}

type firestoreSubscription struct {
	cancel context.CancelFunc
	it     *firestore.QuerySnapshotIterator
}

func (s *firestoreSubscription) Stop() {
	s.cancel()
	s.it.Stop()
}

func toSnapshot(snap *firestore.DocumentSnapshot) *document.Snapshot {
	data := snap.Data()
	if data == nil {
		data = map[string]interface{}{}
	}
	return &document.Snapshot{ID: snap.Ref.ID, Data: document.Document(data)}
}

package database

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/snacktacular/backend/internal/domain/providers"
	mongoclient "github.com/snacktacular/backend/internal/infrastructure/clients/mongo"
	"github.com/snacktacular/backend/internal/infrastructure/observability"
	"github.com/snacktacular/backend/pkg/document"
	apperrors "github.com/snacktacular/backend/pkg/errors"
)

const mongoDocumentsCollection = "documents"

type mongoDocument struct {
	Key        string `bson:"_id"`
	Collection string `bson:"collection"`
	DocID      string `bson:"doc_id"`
	Data       bson.M `bson:"data"`
}

// MongoStore implements DocumentStore over one MongoDB collection whose
// _id is "<collection path>/<document id>". With change streams enabled,
// listeners also refetch on writes made by other processes.
type MongoStore struct {
	coll          *mongo.Collection
	changeStreams bool
	hub           *listenerHub
}

var _ providers.DocumentStore = (*MongoStore)(nil)

// NewMongoStore creates a new MongoDB document store
func NewMongoStore(client *mongoclient.Client, changeStreams bool) *MongoStore {
	s := &MongoStore{
		coll:          client.Database().Collection(mongoDocumentsCollection),
		changeStreams: changeStreams,
	}
	s.hub = newListenerHub(s.List)
	return s
}

// EnsureIndexes creates the index used by List
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "collection", Value: 1}, {Key: "doc_id", Value: 1}},
	})
	if err != nil {
		return apperrors.NewInternalError("failed to create documents index", err)
	}
	return nil
}

func mongoKey(collection, id string) string {
	return collection + "/" + id
}

// Add stores doc under a generated identifier
func (s *MongoStore) Add(ctx context.Context, collection string, doc document.Document) (string, error) {
	id := uuid.NewString()
	_, err := s.coll.InsertOne(ctx, mongoDocument{
		Key:        mongoKey(collection, id),
		Collection: collection,
		DocID:      id,
		Data:       bson.M(doc),
	})
	if err != nil {
		return "", apperrors.NewInternalError("failed to add document", err)
	}

	s.hub.notify(collection)
	return id, nil
}

// Set creates or overwrites the document at id
func (s *MongoStore) Set(ctx context.Context, collection, id string, doc document.Document) error {
	if id == "" {
		return apperrors.NewValidationError("document id is required")
	}

	key := mongoKey(collection, id)
	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"_id": key},
		mongoDocument{Key: key, Collection: collection, DocID: id, Data: bson.M(doc)},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return apperrors.NewInternalError("failed to write document", err)
	}

	s.hub.notify(collection)
	return nil
}

// Get retrieves a single document
func (s *MongoStore) Get(ctx context.Context, collection, id string) (*document.Snapshot, error) {
	var stored mongoDocument
	err := s.coll.FindOne(ctx, bson.M{"_id": mongoKey(collection, id)}).Decode(&stored)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("document %s/%s not found", collection, id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get document", err)
	}

	return &document.Snapshot{ID: id, Data: document.Document(stored.Data)}, nil
}

// Delete removes the document at id. Deleting a missing document succeeds.
func (s *MongoStore) Delete(ctx context.Context, collection, id string) error {
	result, err := s.coll.DeleteOne(ctx, bson.M{"_id": mongoKey(collection, id)})
	if err != nil {
		return apperrors.NewInternalError("failed to delete document", err)
	}

	if result.DeletedCount > 0 {
		s.hub.notify(collection)
	}
	return nil
}

// List returns every document of a collection ordered by id
func (s *MongoStore) List(ctx context.Context, collection string) ([]document.Snapshot, error) {
	cursor, err := s.coll.Find(ctx,
		bson.M{"collection": collection},
		options.Find().SetSort(bson.D{{Key: "doc_id", Value: 1}}),
	)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list documents", err)
	}
	defer cursor.Close(ctx)

	docs := []document.Snapshot{}
	for cursor.Next(ctx) {
		var stored mongoDocument
		if err := cursor.Decode(&stored); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("collection", collection).Msg("Skipping undecodable document")
			continue
		}
		data := document.Document(stored.Data)
		if data == nil {
			data = document.Document{}
		}
		docs = append(docs, document.Snapshot{ID: stored.DocID, Data: data})
	}
	if err := cursor.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate documents", err)
	}

	return docs, nil
}

// Listen delivers the collection now and after every write to it
func (s *MongoStore) Listen(ctx context.Context, collection string, handler providers.SnapshotHandler) (providers.Subscription, error) {
	l := s.hub.newListener(collection, handler)

	if s.changeStreams {
		watchCtx, cancel := context.WithCancel(context.Background())
		pipeline := mongo.Pipeline{
			{{Key: "$match", Value: bson.D{{
				Key:   "documentKey._id",
				Value: bson.D{{Key: "$regex", Value: "^" + regexp.QuoteMeta(collection+"/") + "[^/]+$"}},
			}}}},
		}
		stream, err := s.coll.Watch(watchCtx, pipeline)
		if err != nil {
			cancel()
			return nil, apperrors.NewExternalError("failed to open change stream", err)
		}
		l.onStop = cancel

		go func() {
			defer stream.Close(context.Background())
			for stream.Next(watchCtx) {
				l.poke()
			}
			if err := stream.Err(); err != nil && watchCtx.Err() == nil {
				observability.GetLogger().Warn().Err(err).Str("collection", collection).Msg("Change stream closed")
			}
		}()
	}

	s.hub.start(ctx, l)
	return l, nil
}

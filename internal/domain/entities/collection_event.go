package entities

import (
	"time"

	"github.com/google/uuid"
)

// ChangeType describes what happened to a document
type ChangeType string

const (
	ChangeTypeAdded    ChangeType = "added"
	ChangeTypeModified ChangeType = "modified"
	ChangeTypeRemoved  ChangeType = "removed"
)

// CollectionEvent announces a change to one document of a collection
type CollectionEvent struct {
	ID         string     `json:"id"`
	Collection string     `json:"collection"`
	DocumentID string     `json:"document_id"`
	ChangeType ChangeType `json:"change_type"`
	Timestamp  time.Time  `json:"timestamp"`
}

// NewCollectionEvent creates a new collection event
func NewCollectionEvent(collection, documentID string, changeType ChangeType) *CollectionEvent {
	return &CollectionEvent{
		ID:         uuid.NewString(),
		Collection: collection,
		DocumentID: documentID,
		ChangeType: changeType,
		Timestamp:  time.Now().UTC(),
	}
}

package providers

import (
	"context"

	"github.com/snacktacular/backend/internal/domain/entities"
)

// EventBus carries collection change events between store instances
type EventBus interface {
	Publish(ctx context.Context, channel string, event *entities.CollectionEvent) error

	// Subscribe subscribes to events on a channel until ctx is done
	Subscribe(ctx context.Context, channel string) (<-chan *entities.CollectionEvent, error)

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannelCollectionPrefix prefixes per-collection change channels
const EventChannelCollectionPrefix = "collection:"

// GetCollectionChannel returns the channel name for a collection path
func GetCollectionChannel(collection string) string {
	return EventChannelCollectionPrefix + collection
}

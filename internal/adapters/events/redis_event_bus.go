package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/snacktacular/backend/internal/domain/entities"
	"github.com/snacktacular/backend/internal/domain/providers"
	redisclient "github.com/snacktacular/backend/internal/infrastructure/clients/redis"
	"github.com/snacktacular/backend/internal/infrastructure/observability"
)

// subscriberBuffer bounds how far a slow subscriber may lag before events are dropped
const subscriberBuffer = 100

var errBusClosed = errors.New("event bus is closed")

// topic is one Redis subscription fanned out to local subscribers
type topic struct {
	pubsub *redis.PubSub
	subs   map[chan *entities.CollectionEvent]struct{}
}

// RedisEventBus relays collection change events between API instances over
// Redis Pub/Sub. The first local subscriber of a channel opens the Redis
// subscription and the last one to leave closes it.
type RedisEventBus struct {
	client *redisclient.Client

	mu     sync.Mutex
	topics map[string]*topic
	closed bool
	done   chan struct{}
}

var _ providers.EventBus = (*RedisEventBus)(nil)

func NewRedisEventBus(client *redisclient.Client) *RedisEventBus {
	return &RedisEventBus{
		client: client,
		topics: make(map[string]*topic),
		done:   make(chan struct{}),
	}
}

func (b *RedisEventBus) Publish(ctx context.Context, channel string, event *entities.CollectionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := b.client.Client().Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}

	observability.LoggerFromContext(ctx).Debug().
		Str("channel", channel).
		Str("event_id", event.ID).
		Str("change", string(event.ChangeType)).
		Msg("Published collection event")
	return nil
}

// Subscribe returns a channel of events published on channel. It is closed
// once ctx is done, the bus is closed or the Redis subscription ends.
func (b *RedisEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.CollectionEvent, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, errBusClosed
	}

	t, ok := b.topics[channel]
	if !ok {
		t = &topic{
			pubsub: b.client.Client().Subscribe(context.Background(), channel),
			subs:   make(map[chan *entities.CollectionEvent]struct{}),
		}
		b.topics[channel] = t
		go b.pump(channel, t)
	}
	sub := make(chan *entities.CollectionEvent, subscriberBuffer)
	t.subs[sub] = struct{}{}
	b.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-b.done:
		}
		b.leave(channel, t, sub)
	}()
	return sub, nil
}

// pump decodes messages for one topic until its subscription is closed
func (b *RedisEventBus) pump(channel string, t *topic) {
	logger := observability.GetLogger().With().Str("channel", channel).Logger()

	for msg := range t.pubsub.Channel() {
		var event entities.CollectionEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			logger.Warn().Err(err).Msg("Dropping undecodable event")
			continue
		}

		b.mu.Lock()
		for sub := range t.subs {
			select {
			case sub <- &event:
			default:
				logger.Warn().Str("event_id", event.ID).Msg("Subscriber lagging, event dropped")
			}
		}
		b.mu.Unlock()
	}

	b.mu.Lock()
	closeAll(t)
	if b.topics[channel] == t {
		delete(b.topics, channel)
	}
	b.mu.Unlock()
}

func (b *RedisEventBus) leave(channel string, t *topic, sub chan *entities.CollectionEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := t.subs[sub]; !ok {
		return
	}
	delete(t.subs, sub)
	close(sub)

	if len(t.subs) == 0 && b.topics[channel] == t {
		delete(b.topics, channel)
		if err := t.pubsub.Close(); err != nil {
			observability.GetLogger().Warn().Err(err).Str("channel", channel).Msg("Failed to close subscription")
		}
	}
}

// closeAll closes every subscriber of t; the caller holds b.mu
func closeAll(t *topic) {
	for sub := range t.subs {
		close(sub)
		delete(t.subs, sub)
	}
}

// Close ends every subscription. Subscribers see their channels closed.
func (b *RedisEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.done)

	topics := b.topics
	b.topics = make(map[string]*topic)
	for _, t := range topics {
		closeAll(t)
	}
	b.mu.Unlock()

	var errs []error
	for channel, t := range topics {
		if err := t.pubsub.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", channel, err))
		}
	}
	return errors.Join(errs...)
}

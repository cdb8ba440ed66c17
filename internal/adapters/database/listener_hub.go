package database

import (
	"context"
	"sync"

	"github.com/snacktacular/backend/internal/domain/providers"
	"github.com/snacktacular/backend/pkg/document"
)

type fetchFunc func(ctx context.Context, collection string) ([]document.Snapshot, error)

// listenerHub delivers full collection snapshots to registered handlers.
// Change notifications are coalesced per listener: a burst of writes
// results in at most one pending refetch.
type listenerHub struct {
	fetch fetchFunc

	mu        sync.Mutex
	listeners map[string]map[*listener]struct{}
}

func newListenerHub(fetch fetchFunc) *listenerHub {
	return &listenerHub{
		fetch:     fetch,
		listeners: make(map[string]map[*listener]struct{}),
	}
}

type listener struct {
	hub        *listenerHub
	collection string
	handler    providers.SnapshotHandler
	wake       chan struct{}
	done       chan struct{}
	stopOnce   sync.Once
	onStop     func()
}

func (h *listenerHub) subscribe(ctx context.Context, collection string, handler providers.SnapshotHandler) *listener {
	l := h.newListener(collection, handler)
	h.start(ctx, l)
	return l
}

// newListener prepares a listener that receives nothing until started
func (h *listenerHub) newListener(collection string, handler providers.SnapshotHandler) *listener {
	return &listener{
		hub:        h,
		collection: collection,
		handler:    handler,
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
}

func (h *listenerHub) start(ctx context.Context, l *listener) {
	h.mu.Lock()
	if h.listeners[l.collection] == nil {
		h.listeners[l.collection] = make(map[*listener]struct{})
	}
	h.listeners[l.collection][l] = struct{}{}
	h.mu.Unlock()

	l.wake <- struct{}{}
	go l.run(ctx)
}

// notify schedules a refetch for every listener on collection
func (h *listenerHub) notify(collection string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for l := range h.listeners[collection] {
		l.poke()
	}
}

// count returns the number of live listeners on collection
func (h *listenerHub) count(collection string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners[collection])
}

func (h *listenerHub) remove(l *listener) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if set, ok := h.listeners[l.collection]; ok {
		delete(set, l)
		if len(set) == 0 {
			delete(h.listeners, l.collection)
		}
	}
}

// poke schedules a refetch unless one is already pending
func (l *listener) poke() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *listener) run(ctx context.Context) {
	for {
		select {
		case <-l.done:
			return
		case <-ctx.Done():
			l.Stop()
			return
		case <-l.wake:
			docs, err := l.hub.fetch(ctx, l.collection)
			select {
			case <-l.done:
				return
			default:
			}
			if err != nil && ctx.Err() != nil {
				continue
			}
			l.handler(docs, err)
		}
	}
}

// Stop implements providers.Subscription
func (l *listener) Stop() {
	l.stopOnce.Do(func() {
		close(l.done)
		l.hub.remove(l)
		if l.onStop != nil {
			l.onStop()
		}
	})
}

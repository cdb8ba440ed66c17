package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/snacktacular/backend/internal/application/services"
	"github.com/snacktacular/backend/internal/domain/entities"
	"github.com/snacktacular/backend/internal/domain/providers"
	"github.com/snacktacular/backend/internal/infrastructure/observability"
	"github.com/snacktacular/backend/internal/livesync"
)

const defaultHeartbeat = 30 * time.Second

// SSEHandler streams live collection snapshots over Server-Sent Events
type SSEHandler struct {
	store     providers.DocumentStore
	metrics   *observability.Metrics
	heartbeat time.Duration
}

// NewSSEHandler creates a new SSE handler
func NewSSEHandler(store providers.DocumentStore, metrics *observability.Metrics) *SSEHandler {
	return &SSEHandler{
		store:     store,
		metrics:   metrics,
		heartbeat: defaultHeartbeat,
	}
}

// WithHeartbeat overrides the keep-alive interval
func (h *SSEHandler) WithHeartbeat(interval time.Duration) *SSEHandler {
	h.heartbeat = interval
	return h
}

// StreamSpots handles GET /api/stream/spots?sort=name|rating|distance&lat=&lon=
func (h *SSEHandler) StreamSpots(w http.ResponseWriter, r *http.Request) {
	order, err := services.ParseSpotOrder(r.URL.Query().Get("sort"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	origin, ok := parseOrigin(w, r)
	if !ok {
		return
	}
	less, err := services.SpotLess(order, origin)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	stream(w, r, h, livesync.NewSpots(h.store, livesync.WithOrder(less)))
}

// StreamReviews handles GET /api/stream/spots/{id}/reviews
func (h *SSEHandler) StreamReviews(w http.ResponseWriter, r *http.Request) {
	stream(w, r, h, livesync.NewReviews(h.store, r.PathValue("id"), livesync.WithOrder(func(a, b *entities.Review) bool {
		return a.Date.After(b.Date)
	})))
}

// StreamPhotos handles GET /api/stream/spots/{id}/photos
func (h *SSEHandler) StreamPhotos(w http.ResponseWriter, r *http.Request) {
	stream(w, r, h, livesync.NewPhotos(h.store, r.PathValue("id"), livesync.WithOrder(func(a, b *entities.Photo) bool {
		return a.Date.After(b.Date)
	})))
}

// stream owns collection for the life of the connection and emits a
// snapshot event after every rebuild.
func stream[T any](w http.ResponseWriter, r *http.Request, h *SSEHandler, collection *livesync.Collection[T]) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	logger := observability.LoggerFromContext(ctx).With().Str("collection", collection.Path()).Logger()

	updates := make(chan struct{}, 1)
	err := collection.Load(ctx, func() {
		select {
		case updates <- struct{}{}:
		default:
		}
	})
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	defer collection.Close()

	observability.RecordLiveSubscriber(ctx, h.metrics, collection.Path(), 1)
	defer observability.RecordLiveSubscriber(context.WithoutCancel(ctx), h.metrics, collection.Path(), -1)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	sendEvent(w, "connected", map[string]interface{}{
		"collection": collection.Path(),
		"timestamp":  time.Now().UTC(),
	})
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug().Msg("Client disconnected from stream")
			return
		case <-ticker.C:
			sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now().UTC(),
			})
			flusher.Flush()
		case <-updates:
			if err := collection.Err(); err != nil {
				sendEvent(w, "error", map[string]string{"error": "live query failed"})
			} else {
				items := collection.Items()
				sendEvent(w, "snapshot", map[string]interface{}{
					"collection": collection.Path(),
					"items":      items,
					"count":      len(items),
				})
			}
			flusher.Flush()
		}
	}
}

// sendEvent writes one SSE frame
func sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		observability.GetLogger().Error().Err(err).Str("event", eventType).Msg("Failed to marshal event data")
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
}

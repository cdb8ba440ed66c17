package routes

import (
	"net/http"

	"github.com/snacktacular/backend/internal/api/handlers"
	"github.com/snacktacular/backend/internal/api/middleware"
	"github.com/snacktacular/backend/internal/domain/providers"
	"github.com/snacktacular/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	spotHandler        *handlers.SpotHandler
	reviewHandler      *handlers.ReviewHandler
	photoHandler       *handlers.PhotoHandler
	userHandler        *handlers.UserHandler
	geolocationHandler *handlers.GeolocationHandler
	sseHandler         *handlers.SSEHandler

	identity        providers.IdentityProvider
	cacheMiddleware *middleware.CacheMiddleware
	allowedOrigins  []string
	metrics         *observability.Metrics
	blobs           http.Handler
}

// Options carries the cross-cutting pieces of the router
type Options struct {
	Identity        providers.IdentityProvider
	CacheMiddleware *middleware.CacheMiddleware
	AllowedOrigins  []string
	Metrics         *observability.Metrics
	// Blobs serves photo bytes when they are kept in process
	Blobs http.Handler
}

// NewRouter creates a new router
func NewRouter(
	spotHandler *handlers.SpotHandler,
	reviewHandler *handlers.ReviewHandler,
	photoHandler *handlers.PhotoHandler,
	userHandler *handlers.UserHandler,
	geolocationHandler *handlers.GeolocationHandler,
	sseHandler *handlers.SSEHandler,
	opts Options,
) *Router {
	return &Router{
		mux: http.NewServeMux(),

		spotHandler:        spotHandler,
		reviewHandler:      reviewHandler,
		photoHandler:       photoHandler,
		userHandler:        userHandler,
		geolocationHandler: geolocationHandler,
		sseHandler:         sseHandler,

		identity:        opts.Identity,
		cacheMiddleware: opts.CacheMiddleware,
		allowedOrigins:  opts.AllowedOrigins,
		metrics:         opts.Metrics,
		blobs:           opts.Blobs,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Spot endpoints
	r.mux.HandleFunc("GET /api/spots", r.spotHandler.ListSpots)
	r.mux.HandleFunc("GET /api/spots/search", r.spotHandler.SearchSpots)
	r.mux.HandleFunc("GET /api/spots/{id}", r.spotHandler.GetSpot)
	r.mux.HandleFunc("POST /api/spots", r.spotHandler.CreateSpot)
	r.mux.HandleFunc("PUT /api/spots/{id}", r.spotHandler.UpdateSpot)
	r.mux.HandleFunc("DELETE /api/spots/{id}", r.spotHandler.DeleteSpot)

	// Review endpoints
	r.mux.HandleFunc("GET /api/spots/{id}/reviews", r.reviewHandler.ListReviews)
	r.mux.HandleFunc("POST /api/spots/{id}/reviews", r.reviewHandler.CreateReview)
	r.mux.HandleFunc("PUT /api/spots/{id}/reviews/{reviewId}", r.reviewHandler.UpdateReview)
	r.mux.HandleFunc("DELETE /api/spots/{id}/reviews/{reviewId}", r.reviewHandler.DeleteReview)

	// Photo endpoints
	r.mux.HandleFunc("GET /api/spots/{id}/photos", r.photoHandler.ListPhotos)
	r.mux.HandleFunc("POST /api/spots/{id}/photos", r.photoHandler.UploadPhoto)
	r.mux.HandleFunc("PUT /api/spots/{id}/photos/{photoId}", r.photoHandler.UpdatePhoto)
	r.mux.HandleFunc("DELETE /api/spots/{id}/photos/{photoId}", r.photoHandler.DeletePhoto)

	// User directory
	r.mux.HandleFunc("GET /api/users", r.userHandler.ListUsers)
	r.mux.HandleFunc("GET /api/users/{id}", r.userHandler.GetUser)

	// Places and geocoding
	r.mux.HandleFunc("GET /api/places/search", r.geolocationHandler.SearchPlaces)
	r.mux.HandleFunc("GET /api/geocode", r.geolocationHandler.Geocode)
	r.mux.HandleFunc("GET /api/reverse-geocode", r.geolocationHandler.ReverseGeocode)

	// Live streams
	r.mux.HandleFunc("GET /api/stream/spots", r.sseHandler.StreamSpots)
	r.mux.HandleFunc("GET /api/stream/spots/{id}/reviews", r.sseHandler.StreamReviews)
	r.mux.HandleFunc("GET /api/stream/spots/{id}/photos", r.sseHandler.StreamPhotos)

	if r.blobs != nil {
		r.mux.Handle("GET /blobs/{spotId}/{photoId}", r.blobs)
	}

	// Middleware is applied inside out; CORS ends up outermost so cache
	// hits and auth rejections carry CORS headers too.
	handler := middleware.CaptureRoute(r.mux)
	handler = middleware.LoggingMiddleware(handler)
	if r.identity != nil {
		handler = middleware.AuthMiddleware(r.identity)(handler)
	}
	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.ResponseOptimization(handler)
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}

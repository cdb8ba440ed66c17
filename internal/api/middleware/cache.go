package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/snacktacular/backend/internal/domain/providers"
	"github.com/snacktacular/backend/internal/infrastructure/observability"
)

// CacheRoute caches GET responses under Prefix, matched exactly or as a
// parent path, for TTL
type CacheRoute struct {
	Prefix string
	TTL    time.Duration
}

// DefaultCacheRoutes covers the upstream geocoding calls and the user directory
func DefaultCacheRoutes() []CacheRoute {
	return []CacheRoute{
		{Prefix: "/api/places/search", TTL: 5 * time.Minute},
		{Prefix: "/api/geocode", TTL: time.Hour},
		{Prefix: "/api/reverse-geocode", TTL: time.Hour},
		{Prefix: "/api/users", TTL: time.Minute},
	}
}

// CacheMiddleware serves repeated public GETs from the shared cache. Only
// 200 responses are stored, and a request sending "Cache-Control: no-cache"
// skips the lookup but still refreshes the entry.
type CacheMiddleware struct {
	cache   providers.CacheProvider
	routes  []CacheRoute
	metrics *observability.Metrics
}

// NewCacheMiddleware uses DefaultCacheRoutes when routes is empty
func NewCacheMiddleware(cache providers.CacheProvider, metrics *observability.Metrics, routes ...CacheRoute) *CacheMiddleware {
	if len(routes) == 0 {
		routes = DefaultCacheRoutes()
	}
	return &CacheMiddleware{cache: cache, routes: routes, metrics: metrics}
}

func (m *CacheMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ttl, ok := m.ttlFor(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		key := responseCacheKey(r)

		if !strings.Contains(r.Header.Get("Cache-Control"), "no-cache") {
			if cached, err := m.cache.Get(ctx, key); err == nil {
				observability.RecordCacheHit(ctx, m.metrics, "http")
				w.Header().Set("X-Cache", "HIT")
				w.Header().Set("Content-Type", "application/json")
				w.Write(cached)
				return
			}
		}
		observability.RecordCacheMiss(ctx, m.metrics, "http")
		w.Header().Set("X-Cache", "MISS")

		tee := &teeRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(tee, r)

		if tee.status != http.StatusOK || tee.body.Len() == 0 {
			return
		}
		if err := m.cache.Set(ctx, key, tee.body.Bytes(), ttl); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("path", r.URL.Path).Msg("Failed to cache response")
		}
	})
}

func (m *CacheMiddleware) ttlFor(r *http.Request) (time.Duration, bool) {
	if r.Method != http.MethodGet || m.cache == nil {
		return 0, false
	}
	for _, route := range m.routes {
		if r.URL.Path == route.Prefix || strings.HasPrefix(r.URL.Path, route.Prefix+"/") {
			return route.TTL, true
		}
	}
	return 0, false
}

// responseCacheKey normalises the query so parameter order does not matter
func responseCacheKey(r *http.Request) string {
	raw := r.URL.Path
	if r.URL.RawQuery != "" {
		raw += "?" + r.URL.Query().Encode()
	}
	sum := sha256.Sum256([]byte(raw))
	return "http:cache:" + hex.EncodeToString(sum[:])
}

// teeRecorder passes the response through while keeping a copy of the body
type teeRecorder struct {
	http.ResponseWriter
	status      int
	body        bytes.Buffer
	wroteHeader bool
}

func (t *teeRecorder) WriteHeader(status int) {
	if t.wroteHeader {
		return
	}
	t.wroteHeader = true
	t.status = status
	t.ResponseWriter.WriteHeader(status)
}

func (t *teeRecorder) Write(p []byte) (int, error) {
	t.WriteHeader(http.StatusOK)
	t.body.Write(p)
	return t.ResponseWriter.Write(p)
}

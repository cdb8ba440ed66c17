package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"

	"github.com/snacktacular/backend/internal/infrastructure/observability"
)

// ObservabilityMiddleware wraps each request in a server span named after the
// matched route and records the request counter and latency histogram.
// Server errors mark the span as failed.
func ObservabilityMiddleware(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx, span := observability.StartServerSpan(r.Context(), propagation.HeaderCarrier(r.Header), r.Method+" "+r.URL.Path)
			defer span.End()

			holder := &matchedRoute{}
			ctx = context.WithValue(ctx, matchedRouteKey{}, holder)

			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(ctx))

			route := holder.pattern
			if _, path, ok := strings.Cut(route, " "); ok {
				route = path
			}
			if route == "" {
				route = "unmatched"
			}
			span.SetName(r.Method + " " + route)
			observability.SetSpanAttributes(span,
				attribute.String("http.method", r.Method),
				attribute.String("http.route", route),
				attribute.Int("http.status_code", rec.statusCode),
			)
			if rec.statusCode >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(rec.statusCode))
			}

			observability.RecordRequestMetric(ctx, metrics, r.Method, route, rec.statusCode, time.Since(start))
		})
	}
}

type matchedRouteKey struct{}

type matchedRoute struct {
	pattern string
}

// CaptureRoute must wrap the mux directly. It reports the pattern the mux
// matched back to ObservabilityMiddleware, which only sees its own copy of
// the request.
func CaptureRoute(mux http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r)
		if holder, ok := r.Context().Value(matchedRouteKey{}).(*matchedRoute); ok {
			holder.pattern = r.Pattern
		}
	})
}

package observability

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

type userIDKey struct{}

// InitLogger configures the global logger. Development writes human readable
// lines, test discards everything and any other environment emits JSON.
// An unknown level falls back to info.
func InitLogger(serviceName, env, level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(parseLevel(level))

	var out io.Writer = os.Stdout
	switch env {
	case "test":
		log.Logger = zerolog.New(io.Discard)
		return
	case "development":
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	ctx := zerolog.New(out).With().Timestamp().Str("service", serviceName)
	if env != "development" {
		ctx = ctx.Caller()
	}
	log.Logger = ctx.Logger()
}

func parseLevel(level string) zerolog.Level {
	if level == "" {
		return zerolog.InfoLevel
	}
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || parsed == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return parsed
}

// ContextWithUser tags later log lines from ctx with the caller's user id
func ContextWithUser(ctx context.Context, userID string) context.Context {
	if userID == "" {
		return ctx
	}
	return context.WithValue(ctx, userIDKey{}, userID)
}

// LoggerFromContext returns the global logger enriched with the span and
// user found on ctx
func LoggerFromContext(ctx context.Context) *zerolog.Logger {
	lc := log.With()

	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		lc = lc.Str("trace_id", sc.TraceID().String()).Str("span_id", sc.SpanID().String())
	}
	if userID, ok := ctx.Value(userIDKey{}).(string); ok {
		lc = lc.Str("user_id", userID)
	}

	logger := lc.Logger()
	return &logger
}

// GetLogger returns the global logger
func GetLogger() *zerolog.Logger {
	return &log.Logger
}

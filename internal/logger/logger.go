// Package logger wires log/slog into the pipeline binaries: a JSON
// handler tagged with the service name, plus per-event trace IDs
// carried through context so a single kline event can be followed
// across stages.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"time"
)

type ctxKey struct{}

var traceIDKey ctxKey

// Init installs a JSON logger tagged with the service name as the
// process default and returns it.
func Init(service string, level slog.Level) *slog.Logger {
	l := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})).With(slog.String("service", service))

	slog.SetDefault(l)
	return l
}

// EventTraceID builds the trace ID for one pipeline pass over an event:
// the symbol:interval routing key plus the dispatch time in nanos.
func EventTraceID(symbol, interval string, ts time.Time) string {
	return symbol + ":" + interval + "-" + strconv.FormatInt(ts.UnixNano(), 10)
}

// WithTraceID stores a trace ID in the context for downstream stages.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceID extracts the trace ID from context. Returns "" if not set.
func TraceID(ctx context.Context) string {
	v, _ := ctx.Value(traceIDKey).(string)
	return v
}

// TraceAttrs returns the slog args carrying the trace ID from context,
// nil when no trace ID is set.
// Usage: slog.Error("msg", logger.TraceAttrs(ctx)...)
func TraceAttrs(ctx context.Context) []any {
	if tid := TraceID(ctx); tid != "" {
		return []any{slog.String("trace_id", tid)}
	}
	return nil
}

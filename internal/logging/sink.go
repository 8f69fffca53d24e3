package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"autopilot/internal/domain"
	"autopilot/internal/ports"
)

// MaxSinkRows caps the persistent log table; older rows are pruned.
const MaxSinkRows = 500

// SinkHandler tees log records into the persistent log store while delegating
// console output to the wrapped handler. Sink failures are swallowed so that
// logging never breaks the pipeline.
type SinkHandler struct {
	inner slog.Handler
	store ports.LogStore
	attrs []slog.Attr
}

var _ slog.Handler = (*SinkHandler)(nil)

// NewSinkHandler wraps inner with persistence into store.
func NewSinkHandler(inner slog.Handler, store ports.LogStore) *SinkHandler {
	return &SinkHandler{inner: inner, store: store}
}

// Enabled defers to the wrapped handler.
func (h *SinkHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle writes the record to the store and the wrapped handler.
func (h *SinkHandler) Handle(ctx context.Context, rec slog.Record) error {
	fields := map[string]any{}
	for _, attr := range h.attrs {
		fields[attr.Key] = attr.Value.Any()
	}
	rec.Attrs(func(attr slog.Attr) bool {
		fields[attr.Key] = attr.Value.Any()
		return true
	})

	var contextJSON string
	if len(fields) > 0 {
		if raw, err := json.Marshal(fields); err == nil {
			contextJSON = string(raw)
		}
	}

	entry := domain.LogEntry{
		Level:     levelName(rec.Level),
		Message:   rec.Message,
		Context:   contextJSON,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.store.Append(ctx, entry); err == nil {
		_ = h.store.Prune(ctx, MaxSinkRows)
	}

	return h.inner.Handle(ctx, rec)
}

// WithAttrs carries attributes into both the sink context and the wrapped
// handler.
func (h *SinkHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &SinkHandler{inner: h.inner.WithAttrs(attrs), store: h.store, attrs: merged}
}

// WithGroup defers grouping to the wrapped handler.
func (h *SinkHandler) WithGroup(name string) slog.Handler {
	return &SinkHandler{inner: h.inner.WithGroup(name), store: h.store, attrs: h.attrs}
}

func levelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "error"
	case level >= slog.LevelWarn:
		return "warning"
	default:
		return "info"
	}
}

package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// LogRecord is a captured log record.
type LogRecord struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// BufferedHandler captures records so tests can assert on what was logged.
// Handlers derived with WithAttrs share the same buffer.
type BufferedHandler struct {
	mu      *sync.Mutex
	records *[]LogRecord
	attrs   []slog.Attr
	t       testing.TB
}

func NewBufferedHandler(t testing.TB) *BufferedHandler {
	return &BufferedHandler{
		mu:      &sync.Mutex{},
		records: &[]LogRecord{},
		t:       t,
	}
}

// NewLogger returns a logger backed by a fresh BufferedHandler.
func NewLogger(t testing.TB) (*slog.Logger, *BufferedHandler) {
	h := NewBufferedHandler(t)
	return slog.New(h), h
}

func (h *BufferedHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *BufferedHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	h.mu.Lock()
	*h.records = append(*h.records, LogRecord{Level: r.Level, Message: r.Message, Attrs: attrs})
	h.mu.Unlock()

	if h.t != nil {
		h.t.Logf("[%s] %s %v", r.Level, r.Message, attrs)
	}
	return nil
}

func (h *BufferedHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &next
}

func (h *BufferedHandler) WithGroup(string) slog.Handler { return h }

func (h *BufferedHandler) Records() []LogRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]LogRecord, len(*h.records))
	copy(out, *h.records)
	return out
}

// Count returns how many records at level contain msg.
func (h *BufferedHandler) Count(level slog.Level, msg string) int {
	n := 0
	for _, r := range h.Records() {
		if r.Level == level && strings.Contains(r.Message, msg) {
			n++
		}
	}
	return n
}

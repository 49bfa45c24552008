package memory

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	data     []byte
	modified time.Time
}

// Handler implements ports.SaveHandler in process memory.
// Safe for concurrent use. Blobs are lost when the process exits.
type Handler struct {
	data        map[string]entry
	mu          sync.RWMutex
	now         func() time.Time
	maxLifetime time.Duration
}

// HandlerOption configures the Handler.
type HandlerOption func(*Handler)

// WithMaxLifetime makes Read treat blobs not written within d as absent.
// Zero, the default, leaves expiry to GC alone.
func WithMaxLifetime(d time.Duration) HandlerOption {
	return func(h *Handler) {
		h.maxLifetime = d
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.now = now
	}
}

// NewHandler creates a new in-memory save handler.
func NewHandler(opts ...HandlerOption) *Handler {
	h := &Handler{
		data: make(map[string]entry),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Open implements ports.SaveHandler.
func (h *Handler) Open(ctx context.Context, name string) error { return nil }

// Close implements ports.SaveHandler.
func (h *Handler) Close(ctx context.Context) error { return nil }

// Read returns a copy of the blob so callers can't mutate stored bytes.
func (h *Handler) Read(ctx context.Context, id string) ([]byte, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	e, ok := h.data[id]
	if !ok {
		return nil, nil
	}
	if h.maxLifetime > 0 && e.modified.Before(h.now().Add(-h.maxLifetime)) {
		return nil, nil
	}
	return append([]byte(nil), e.data...), nil
}

// Write stores a copy of the blob and stamps its modification time.
func (h *Handler) Write(ctx context.Context, id string, data []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.data[id] = entry{data: append([]byte(nil), data...), modified: h.now()}
	return nil
}

// Destroy removes the blob.
func (h *Handler) Destroy(ctx context.Context, id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.data, id)
	return nil
}

// GC removes blobs not written for longer than maxLifetime.
func (h *Handler) GC(ctx context.Context, maxLifetime time.Duration) (int, error) {
	cutoff := h.now().Add(-maxLifetime)

	h.mu.Lock()
	defer h.mu.Unlock()

	removed := 0
	for id, e := range h.data {
		if e.modified.Before(cutoff) {
			delete(h.data, id)
			removed++
		}
	}
	return removed, nil
}

// List returns the ids of stored blobs.
func (h *Handler) List() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.data))
	for id := range h.data {
		ids = append(ids, id)
	}
	return ids
}

package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/satchel/internal/logging"
	"github.com/aretw0/satchel/pkg/config"
	backend "github.com/redis/go-redis/v9"
)

// Handler implements ports.SaveHandler on Redis: each host session is one key
// holding the encoded record, expiring cfg.Expire seconds after its last write.
type Handler struct {
	conn   *Conn
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// HandlerOption configures the Handler.
type HandlerOption func(*Handler)

// WithHandlerLogger configures a logger for the handler.
func WithHandlerLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithHandlerConn makes the handler use a shared connection.
func WithHandlerConn(conn *Conn) HandlerOption {
	return func(h *Handler) {
		h.conn = conn
	}
}

// NewHandler creates a Handler storing blobs under cfg.KeyPrefix + id.
func NewHandler(cfg config.Redis, opts ...HandlerOption) *Handler {
	h := &Handler{
		prefix: cfg.KeyPrefix,
		ttl:    cfg.TTL(),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.conn == nil {
		h.conn = Dial(cfg.Server)
	}
	return h
}

func (h *Handler) key(id string) string {
	return h.prefix + id
}

// Open connects to the server.
func (h *Handler) Open(ctx context.Context, name string) error {
	_, err := h.conn.Client(ctx)
	if err == nil {
		h.logger.Debug("Redis save handler opened", "session_name", name)
	}
	return err
}

// Close releases the connection if the handler created it.
func (h *Handler) Close(ctx context.Context) error {
	return h.conn.Close()
}

// Read returns the stored blob, or nil when the session has none.
func (h *Handler) Read(ctx context.Context, id string) ([]byte, error) {
	client, err := h.conn.Client(ctx)
	if err != nil {
		return nil, err
	}
	data, err := client.Get(ctx, h.key(id)).Bytes()
	if errors.Is(err, backend.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session %s: %w", id, err)
	}
	return data, nil
}

// Write stores the blob and renews its expiry.
func (h *Handler) Write(ctx context.Context, id string, data []byte) error {
	client, err := h.conn.Client(ctx)
	if err != nil {
		return err
	}
	if err := client.Set(ctx, h.key(id), data, h.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write session %s: %w", id, err)
	}
	return nil
}

// Destroy deletes the stored blob.
func (h *Handler) Destroy(ctx context.Context, id string) error {
	client, err := h.conn.Client(ctx)
	if err != nil {
		return err
	}
	if err := client.Del(ctx, h.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to destroy session %s: %w", id, err)
	}
	return nil
}

// GC is a no-op: Redis expires the keys itself.
func (h *Handler) GC(ctx context.Context, maxLifetime time.Duration) (int, error) {
	return 0, nil
}

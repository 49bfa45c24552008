package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/satchel/internal/logging"
	"github.com/aretw0/satchel/pkg/codec"
	"github.com/aretw0/satchel/pkg/config"
	"github.com/aretw0/satchel/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Store implements ports.Store on Redis. Every entry is its own key, written with
// SET EX so it expires independently; reads and deletes are separate commands and
// therefore not atomic with each other.
type Store struct {
	conn        *Conn
	ns          domain.Namespace
	ttl         time.Duration
	atomicFlash bool
	logger      *slog.Logger
}

// Option configures the Store.
type Option func(*Store)

// WithLogger configures a logger for the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithNamespace overrides the key and flash prefixes taken from the config.
func WithNamespace(ns domain.Namespace) Option {
	return func(s *Store) {
		s.ns = ns
	}
}

// New creates a Store that connects to cfg.Server on its first operation.
func New(cfg config.Redis, opts ...Option) *Store {
	return NewWithConn(Dial(cfg.Server), cfg, opts...)
}

// NewFromClient creates a Store over an existing client. Close does not close it.
func NewFromClient(client *backend.Client, cfg config.Redis, opts ...Option) *Store {
	return NewWithConn(FromClient(client), cfg, opts...)
}

// NewWithConn creates a Store over a connection shared with other stores.
func NewWithConn(conn *Conn, cfg config.Redis, opts ...Option) *Store {
	s := &Store{
		conn:        conn,
		ns:          cfg.Namespace(),
		ttl:         cfg.TTL(),
		atomicFlash: cfg.AtomicFlash,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close releases the connection if the Store created it.
func (s *Store) Close(ctx context.Context) error {
	return s.conn.Close()
}

// Set implements ports.Store.
func (s *Store) Set(ctx context.Context, key string, value any) error {
	return s.set(ctx, s.ns.Key(key), value)
}

// Get implements ports.Store.
func (s *Store) Get(ctx context.Context, key string, def any) (any, error) {
	client, err := s.conn.Client(ctx)
	if err != nil {
		return nil, err
	}
	v, ok, err := s.read(ctx, client, s.ns.Key(key))
	if err != nil || !ok {
		return def, err
	}
	return v, nil
}

// Remove implements ports.Store.
func (s *Store) Remove(ctx context.Context, key string) (any, error) {
	v, _, err := s.take(ctx, s.ns.Key(key), false)
	return v, err
}

// Clear deletes every key under the store's prefix. Keys are found with SCAN and
// deleted one by one, so a concurrent writer may race the sweep.
func (s *Store) Clear(ctx context.Context) error {
	client, err := s.conn.Client(ctx)
	if err != nil {
		return err
	}

	iter := client.Scan(ctx, 0, escapeGlob(s.ns.KeyPrefix)+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete %s: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan keys: %w", err)
	}
	return nil
}

// SetFlash implements ports.Store.
func (s *Store) SetFlash(ctx context.Context, key string, value any) error {
	return s.set(ctx, s.ns.FlashKey(key), value)
}

// HasFlash implements ports.Store.
func (s *Store) HasFlash(ctx context.Context, key string) (bool, error) {
	client, err := s.conn.Client(ctx)
	if err != nil {
		return false, err
	}
	n, err := client.Exists(ctx, s.ns.FlashKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check flash %s: %w", key, err)
	}
	return n > 0, nil
}

// GetFlash implements ports.Store. Without AtomicFlash two concurrent readers may
// both observe the value before either deletes it.
func (s *Store) GetFlash(ctx context.Context, key string, def any) (any, error) {
	v, ok, err := s.take(ctx, s.ns.FlashKey(key), s.atomicFlash)
	if err != nil || !ok {
		return def, err
	}
	return v, nil
}

func (s *Store) set(ctx context.Context, physical string, value any) error {
	client, err := s.conn.Client(ctx)
	if err != nil {
		return err
	}
	data, err := codec.EncodeValue(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", physical, err)
	}
	if err := client.Set(ctx, physical, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", physical, err)
	}
	return nil
}

// read runs EXISTS then GET. A key expiring between the two reads as absent.
func (s *Store) read(ctx context.Context, client *backend.Client, physical string) (any, bool, error) {
	n, err := client.Exists(ctx, physical).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to check %s: %w", physical, err)
	}
	if n == 0 {
		return nil, false, nil
	}

	data, err := client.Get(ctx, physical).Bytes()
	if errors.Is(err, backend.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get %s: %w", physical, err)
	}
	return s.decode(physical, data)
}

// take reads and deletes a key, with GETDEL when atomic is set.
func (s *Store) take(ctx context.Context, physical string, atomic bool) (any, bool, error) {
	client, err := s.conn.Client(ctx)
	if err != nil {
		return nil, false, err
	}

	if atomic {
		data, err := client.GetDel(ctx, physical).Bytes()
		if errors.Is(err, backend.Nil) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, fmt.Errorf("failed to getdel %s: %w", physical, err)
		}
		return s.decode(physical, data)
	}

	v, ok, err := s.read(ctx, client, physical)
	if err != nil || !ok {
		return nil, false, err
	}
	if err := client.Del(ctx, physical).Err(); err != nil {
		return nil, false, fmt.Errorf("failed to delete %s: %w", physical, err)
	}
	return v, true, nil
}

func (s *Store) decode(physical string, data []byte) (any, bool, error) {
	v, err := codec.DecodeValue(data)
	if err != nil {
		// Values written by other clients are returned as raw strings.
		s.logger.Debug("Non-JSON value, returning raw", "key", physical, "err", err)
		return string(data), true, nil
	}
	return v, true, nil
}

// escapeGlob quotes the characters SCAN MATCH treats as patterns.
func escapeGlob(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

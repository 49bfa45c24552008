package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	mrand "math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/satchel/internal/logging"
	"github.com/aretw0/satchel/pkg/codec"
	"github.com/aretw0/satchel/pkg/config"
	"github.com/aretw0/satchel/pkg/domain"
	"github.com/aretw0/satchel/pkg/ports"
	"github.com/aretw0/satchel/pkg/sessionid"
)

var (
	_ ports.Store     = (*Store)(nil)
	_ ports.Tokener   = (*Store)(nil)
	_ ports.Finalizer = (*Store)(nil)
)

// Store implements ports.Store on the local filesystem.
// The whole record of a session is loaded on the first operation, kept in memory,
// and written back once, by Close, to a file named after the session id.
//
// A Store serves one request at a time and is not safe for concurrent use.
// Two Stores for the same session id do not merge: the last one to Close wins.
type Store struct {
	cfg    config.File
	dir    string
	ns     domain.Namespace
	ch     ports.IDChannel
	codec  codec.Codec
	gen    sessionid.Generator
	roll   func(n int) int
	logger *slog.Logger

	id      string
	data    domain.Record
	started bool
	closed  bool
}

// Option configures the Store.
type Option func(*Store)

// WithLogger configures a logger for swallowed errors (corrupt files, GC failures).
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithCodec replaces the JSON record codec, e.g. with an encrypting one.
func WithCodec(c codec.Codec) Option {
	return func(s *Store) {
		s.codec = c
	}
}

// WithGenerator sets the session id and token generator.
func WithGenerator(g sessionid.Generator) Option {
	return func(s *Store) {
		s.gen = g
	}
}

// WithRoll replaces the random draw deciding whether GC runs on Close.
// roll(n) must return a value in [0, n).
func WithRoll(roll func(n int) int) Option {
	return func(s *Store) {
		s.roll = roll
	}
}

// New creates a Store saving into cfg.Dir(), creating the directory if needed.
// The session identity is read from (or emitted to) ch lazily, on the first operation.
func New(cfg config.File, ch ports.IDChannel, opts ...Option) (*Store, error) {
	if ch == nil {
		return nil, fmt.Errorf("%w: file store needs an identifier channel", domain.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dir, err := ensureDir(cfg.Dir())
	if err != nil {
		return nil, err
	}

	s := &Store{
		cfg:    cfg,
		dir:    dir,
		ns:     cfg.Namespace(),
		ch:     ch,
		codec:  codec.JSON{},
		roll:   mrand.IntN,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ensureDir creates dir and resolves it to an absolute, symlink-free path.
func ensureDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		// Another process may have won the race to create it.
		if info, statErr := os.Stat(dir); statErr != nil || !info.IsDir() {
			return "", fmt.Errorf("failed to ensure session directory: %w", err)
		}
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve session directory: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return abs, nil
}

// ID returns the session id, or "" before the first operation.
func (s *Store) ID() string { return s.id }

// Dir returns the resolved storage directory.
func (s *Store) Dir() string { return s.dir }

// start establishes the session identity and loads the saved record.
// It runs once; later calls are no-ops.
func (s *Store) start(ctx context.Context) error {
	if s.closed {
		return domain.ErrClosed
	}
	if s.started {
		return nil
	}

	id, err := s.gen.Establish(s.ch)
	if err != nil {
		return fmt.Errorf("failed to establish session id: %w", err)
	}

	s.id = id
	s.data = s.load(id)
	s.started = true
	return nil
}

// load reads the saved record. A missing, expired, unreadable or corrupt file
// yields an empty record.
func (s *Store) load(id string) domain.Record {
	path := s.path(id)
	if info, err := os.Stat(path); err == nil && expired(info.ModTime(), s.cfg.TTL(), time.Now()) {
		s.logger.Debug("Expired session file, starting empty", "session_id", id, "modified", info.ModTime())
		return domain.Record{}
	}

	data, err := readLocked(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("Unreadable session file, starting empty", "session_id", id, "err", err)
		}
		return domain.Record{}
	}

	record, err := s.codec.Unmarshal(data)
	if err != nil {
		s.logger.Warn("Corrupt session file, starting empty", "session_id", id, "err", err)
		return domain.Record{}
	}
	return record
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id)
}

// Close persists the record exactly once and, with probability
// GCProbability/GCDivisor, garbage collects expired session files.
// Close on a Store that never started writes nothing. Calling Close again is a no-op.
func (s *Store) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true
	if !s.started {
		return nil
	}

	data, err := s.codec.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", s.id, err)
	}
	if err := writeLocked(s.path(s.id), data); err != nil {
		return fmt.Errorf("failed to save session %s: %w", s.id, err)
	}

	if s.roll(s.cfg.GCDivisor) < s.cfg.GCProbability {
		// GC belongs to this save path and is not abandoned midway by cancellation.
		removed, _ := collect(context.WithoutCancel(ctx), s.dir, s.cfg.TTL(), s.logger)
		s.logger.Debug("Session GC finished", "dir", s.dir, "removed", removed)
	}
	return nil
}

// GC removes expired session files now, regardless of the GC probability.
func (s *Store) GC(ctx context.Context) (int, error) {
	return collect(ctx, s.dir, s.cfg.TTL(), s.logger)
}

// Scope returns a view of the same session record under another namespace.
// Views share the lifecycle of s: only s.Close persists.
func (s *Store) Scope(ns domain.Namespace) ports.Store {
	return &view{s: s, ns: ns}
}

// Set implements ports.Store.
func (s *Store) Set(ctx context.Context, key string, value any) error {
	return s.set(ctx, s.ns.Key(key), value)
}

// Get implements ports.Store.
func (s *Store) Get(ctx context.Context, key string, def any) (any, error) {
	return s.get(ctx, s.ns.Key(key), def)
}

// Remove implements ports.Store.
func (s *Store) Remove(ctx context.Context, key string) (any, error) {
	return s.take(ctx, s.ns.Key(key), nil)
}

// Clear implements ports.Store.
func (s *Store) Clear(ctx context.Context) error {
	return s.clear(ctx, s.ns)
}

// SetFlash implements ports.Store.
func (s *Store) SetFlash(ctx context.Context, key string, value any) error {
	return s.set(ctx, s.ns.FlashKey(key), value)
}

// HasFlash implements ports.Store.
func (s *Store) HasFlash(ctx context.Context, key string) (bool, error) {
	return s.has(ctx, s.ns.FlashKey(key))
}

// GetFlash implements ports.Store.
func (s *Store) GetFlash(ctx context.Context, key string, def any) (any, error) {
	return s.take(ctx, s.ns.FlashKey(key), def)
}

func (s *Store) set(ctx context.Context, physical string, value any) error {
	if err := s.start(ctx); err != nil {
		return err
	}
	s.data[physical] = value
	return nil
}

func (s *Store) get(ctx context.Context, physical string, def any) (any, error) {
	if err := s.start(ctx); err != nil {
		return nil, err
	}
	if v, ok := s.data[physical]; ok {
		return v, nil
	}
	return def, nil
}

func (s *Store) has(ctx context.Context, physical string) (bool, error) {
	if err := s.start(ctx); err != nil {
		return false, err
	}
	_, ok := s.data[physical]
	return ok, nil
}

func (s *Store) take(ctx context.Context, physical string, def any) (any, error) {
	if err := s.start(ctx); err != nil {
		return nil, err
	}
	if v, ok := s.data.Take(physical); ok {
		return v, nil
	}
	return def, nil
}

func (s *Store) clear(ctx context.Context, ns domain.Namespace) error {
	if err := s.start(ctx); err != nil {
		return err
	}
	ns.Clear(s.data)
	return nil
}

// view is a Store bound to another namespace of the same record.
type view struct {
	s  *Store
	ns domain.Namespace
}

func (v *view) Set(ctx context.Context, key string, value any) error {
	return v.s.set(ctx, v.ns.Key(key), value)
}

func (v *view) Get(ctx context.Context, key string, def any) (any, error) {
	return v.s.get(ctx, v.ns.Key(key), def)
}

func (v *view) Remove(ctx context.Context, key string) (any, error) {
	return v.s.take(ctx, v.ns.Key(key), nil)
}

func (v *view) Clear(ctx context.Context) error {
	return v.s.clear(ctx, v.ns)
}

func (v *view) SetFlash(ctx context.Context, key string, value any) error {
	return v.s.set(ctx, v.ns.FlashKey(key), value)
}

func (v *view) HasFlash(ctx context.Context, key string) (bool, error) {
	return v.s.has(ctx, v.ns.FlashKey(key))
}

func (v *view) GetFlash(ctx context.Context, key string, def any) (any, error) {
	return v.s.take(ctx, v.ns.FlashKey(key), def)
}

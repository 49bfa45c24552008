package host

import (
	"context"
	"fmt"
	"log/slog"
	mrand "math/rand/v2"
	"sync"
	"time"

	"github.com/aretw0/satchel/internal/logging"
	"github.com/aretw0/satchel/pkg/codec"
	"github.com/aretw0/satchel/pkg/config"
	"github.com/aretw0/satchel/pkg/domain"
	"github.com/aretw0/satchel/pkg/ports"
	"github.com/aretw0/satchel/pkg/sessionid"
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager hands out host sessions over one save handler and serializes access
// to the same session id. It uses reference counting to garbage collect unused locks.
type Manager struct {
	handler ports.SaveHandler
	cfg     config.Process
	codec   codec.Codec
	gen     sessionid.Generator
	roll    func(n int) int

	openMu sync.Mutex
	opened bool

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets how long a distributed lock outlives a crashed holder.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithCodec replaces the JSON codec used for stored blobs.
func WithCodec(c codec.Codec) Option {
	return func(m *Manager) {
		m.codec = c
	}
}

// WithGenerator sets the session id generator.
func WithGenerator(g sessionid.Generator) Option {
	return func(m *Manager) {
		m.gen = g
	}
}

// WithRoll replaces the random draw deciding whether GC runs when a session closes.
func WithRoll(roll func(n int) int) Option {
	return func(m *Manager) {
		m.roll = roll
	}
}

// NewManager creates a Manager persisting sessions through handler.
func NewManager(handler ports.SaveHandler, cfg config.Process, opts ...Option) *Manager {
	m := &Manager{
		handler: handler,
		cfg:     cfg,
		codec:   codec.JSON{},
		roll:    mrand.IntN,
		locks:   make(map[string]*lockEntry),
		lockTTL: 30 * time.Second,
		logger:  logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Session returns a new, not yet started host session whose identity travels on ch.
func (m *Manager) Session(ch ports.IDChannel) *Session {
	return &Session{m: m, ch: ch}
}

// GC asks the handler to drop sessions idle for longer than the configured expiry.
func (m *Manager) GC(ctx context.Context) (int, error) {
	removed, err := m.handler.GC(ctx, m.cfg.TTL())
	if err != nil {
		return removed, fmt.Errorf("session gc failed: %w", err)
	}
	return removed, nil
}

// Close closes the handler if any session opened it.
func (m *Manager) Close(ctx context.Context) error {
	m.openMu.Lock()
	defer m.openMu.Unlock()

	if !m.opened {
		return nil
	}
	m.opened = false
	return m.handler.Close(ctx)
}

// open opens the handler on first use. A failed open is retried by the next session.
func (m *Manager) open(ctx context.Context) error {
	m.openMu.Lock()
	defer m.openMu.Unlock()

	if m.opened {
		return nil
	}
	if err := m.handler.Open(ctx, m.cfg.SessionName); err != nil {
		return fmt.Errorf("failed to open save handler: %w", err)
	}
	m.opened = true
	return nil
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

func (m *Manager) read(ctx context.Context, id string) (domain.Record, error) {
	var data []byte
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		data, err = m.handler.Read(ctx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read session %s: %w", id, err)
	}

	record, err := m.codec.Unmarshal(data)
	if err != nil {
		m.logger.Warn("Corrupt host session, starting empty", "session_id", id, "err", err)
		return domain.Record{}, nil
	}
	return record, nil
}

func (m *Manager) write(ctx context.Context, id string, record domain.Record) error {
	data, err := m.codec.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", id, err)
	}
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		return m.handler.Write(ctx, id, data)
	})
}

func (m *Manager) destroy(ctx context.Context, id string) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		return m.handler.Destroy(ctx, id)
	})
}

// maybeGC runs handler GC with probability GCProbability/GCDivisor.
func (m *Manager) maybeGC(ctx context.Context) {
	if m.cfg.GCDivisor <= 0 || m.roll(m.cfg.GCDivisor) >= m.cfg.GCProbability {
		return
	}
	removed, err := m.GC(context.WithoutCancel(ctx))
	if err != nil {
		m.logger.Warn("Host session GC failed", "err", err)
		return
	}
	m.logger.Debug("Host session GC finished", "removed", removed)
}

package satchel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/satchel/internal/logging"
	"github.com/aretw0/satchel/pkg/adapters/file"
	"github.com/aretw0/satchel/pkg/adapters/memory"
	"github.com/aretw0/satchel/pkg/adapters/process"
	"github.com/aretw0/satchel/pkg/adapters/redis"
	"github.com/aretw0/satchel/pkg/codec"
	"github.com/aretw0/satchel/pkg/config"
	"github.com/aretw0/satchel/pkg/domain"
	"github.com/aretw0/satchel/pkg/host"
	"github.com/aretw0/satchel/pkg/persistence/middleware"
	"github.com/aretw0/satchel/pkg/ports"
	"github.com/aretw0/satchel/pkg/sessionid"
	backend "github.com/redis/go-redis/v9"
)

// Factory opens sessions on the backend selected by the configuration.
// It owns the resources sessions share: the Redis connection and the host
// session manager. A Factory is safe for concurrent use.
type Factory struct {
	cfg         config.Config
	logger      *slog.Logger
	codec       codec.Codec
	gen         sessionid.Generator
	middlewares []middleware.Middleware
	metrics     *middleware.Metrics
	locker      ports.DistributedLocker

	conn    *redis.Conn
	manager *host.Manager
}

// Option defines a functional option for configuring the Factory.
type Option func(*Factory)

// WithLogger sets a custom structured logger for the factory and its backends.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithCodec sets the record codec of the file and process backends.
func WithCodec(c codec.Codec) Option {
	return func(f *Factory) {
		f.codec = c
	}
}

// WithGenerator sets the session id generator.
func WithGenerator(g sessionid.Generator) Option {
	return func(f *Factory) {
		f.gen = g
	}
}

// WithMiddleware wraps every opened store with mws, the first being the outermost.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(f *Factory) {
		f.middlewares = append(f.middlewares, mws...)
	}
}

// WithMetrics records store operations, labeled with the driver name.
func WithMetrics(m *middleware.Metrics) Option {
	return func(f *Factory) {
		f.metrics = m
	}
}

// WithRedisClient makes the redis driver and the redis save handler reuse client.
// The factory does not close it.
func WithRedisClient(client *backend.Client) Option {
	return func(f *Factory) {
		f.conn = redis.FromClient(client)
	}
}

// WithLocker serializes host sessions across replicas (process driver only).
func WithLocker(locker ports.DistributedLocker) Option {
	return func(f *Factory) {
		f.locker = locker
	}
}

// New validates cfg and prepares a Factory. No connection is made until a
// session needs one.
func New(cfg config.Config, opts ...Option) (*Factory, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	f := &Factory{
		cfg:    cfg,
		logger: logging.NewNop(),
		codec:  codec.JSON{},
	}
	for _, opt := range opts {
		opt(f)
	}

	usesRedis := cfg.Driver == config.DriverRedis ||
		(cfg.Driver == config.DriverProcess && cfg.Process.Handler == config.HandlerRedis)
	if usesRedis && f.conn == nil {
		f.conn = redis.Dial(cfg.Redis.Server)
	}

	if cfg.Driver == config.DriverProcess {
		hopts := []host.Option{
			host.WithLogger(f.logger),
			host.WithCodec(f.codec),
			host.WithGenerator(f.gen),
		}
		if f.locker != nil {
			hopts = append(hopts, host.WithLocker(f.locker))
		}
		f.manager = host.NewManager(f.saveHandler(), cfg.Process, hopts...)
	}
	return f, nil
}

func (f *Factory) saveHandler() ports.SaveHandler {
	if f.cfg.Process.Handler != config.HandlerRedis {
		return memory.NewHandler(memory.WithMaxLifetime(f.cfg.Process.TTL()))
	}
	rcfg := f.cfg.Redis
	rcfg.Expire = f.cfg.Process.Expire
	return redis.NewHandler(rcfg,
		redis.WithHandlerConn(f.conn),
		redis.WithHandlerLogger(f.logger),
	)
}

// Config returns the configuration the factory was built with.
func (f *Factory) Config() config.Config { return f.cfg }

// Open returns the session of the visitor identified through ch.
// The caller must Close the session when the request ends.
func (f *Factory) Open(ctx context.Context, ch ports.IDChannel) (*Session, error) {
	if ch == nil {
		return nil, fmt.Errorf("%w: nil identifier channel", domain.ErrInvalidConfig)
	}

	sess := &Session{gen: f.gen}
	var store ports.Store

	switch f.cfg.Driver {
	case config.DriverFile:
		fs, err := file.New(f.cfg.File, ch,
			file.WithLogger(f.logger),
			file.WithCodec(f.codec),
			file.WithGenerator(f.gen),
		)
		if err != nil {
			return nil, err
		}
		store, sess.finalizer = fs, fs

	case config.DriverRedis:
		// Keys are scoped per visitor, so the id is needed before the first command.
		id, err := f.gen.Establish(ch)
		if err != nil {
			return nil, fmt.Errorf("failed to establish session id: %w", err)
		}
		ns := f.cfg.Redis.Namespace()
		ns.KeyPrefix += id + ":"
		store = redis.NewWithConn(f.conn, f.cfg.Redis,
			redis.WithNamespace(ns),
			redis.WithLogger(f.logger),
		)
		sess.id = id

	case config.DriverProcess:
		hs := f.manager.Session(ch)
		store, sess.finalizer, sess.host = process.New(hs, f.cfg.Process), hs, hs

	default:
		return nil, fmt.Errorf("%w: unknown driver %q", domain.ErrInvalidConfig, f.cfg.Driver)
	}

	mws := f.middlewares
	if f.metrics != nil {
		mws = append([]middleware.Middleware{f.metrics.Middleware(f.cfg.Driver)}, mws...)
	}
	sess.Store = middleware.Chain(store, mws...)
	sess.raw = store
	return sess, nil
}

// GC removes expired sessions of the file and process drivers now.
// Redis expires keys by itself, so the redis driver removes nothing.
func (f *Factory) GC(ctx context.Context) (int, error) {
	switch f.cfg.Driver {
	case config.DriverFile:
		return file.GC(ctx, f.cfg.File)
	case config.DriverProcess:
		return f.manager.GC(ctx)
	default:
		return 0, nil
	}
}

// Close releases the host session manager and an owned Redis connection.
func (f *Factory) Close(ctx context.Context) error {
	var errs []error
	if f.manager != nil {
		errs = append(errs, f.manager.Close(ctx))
	}
	if f.conn != nil {
		errs = append(errs, f.conn.Close())
	}
	return errors.Join(errs...)
}

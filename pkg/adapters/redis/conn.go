package redis

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aretw0/satchel/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Conn is a lazily established Redis connection that several stores can share.
// The client is built and PINGed on first use; a failed attempt is reported and
// not retried in a loop, the next operation simply tries again.
type Conn struct {
	mu      sync.Mutex
	opts    *backend.Options
	optsErr error
	client  *backend.Client
	ready   bool
	owned   bool
}

// Dial prepares a connection to server without contacting it.
// server is empty (127.0.0.1:6379), a redis:// or rediss:// URL, or host:port.
func Dial(server string) *Conn {
	opts, err := ParseServer(server)
	return &Conn{opts: opts, optsErr: err, owned: true}
}

// FromClient wraps an existing client. Close leaves it open.
func FromClient(client *backend.Client) *Conn {
	return &Conn{client: client, ready: true}
}

// ParseServer turns a server descriptor into client options.
func ParseServer(server string) (*backend.Options, error) {
	server = strings.TrimSpace(server)
	switch {
	case server == "":
		return &backend.Options{Addr: domain.DefaultServer}, nil
	case strings.HasPrefix(server, "redis://"), strings.HasPrefix(server, "rediss://"), strings.HasPrefix(server, "unix://"):
		opts, err := backend.ParseURL(server)
		if err != nil {
			return nil, fmt.Errorf("%w: redis server %q: %w", domain.ErrInvalidConfig, server, err)
		}
		return opts, nil
	default:
		return &backend.Options{Addr: strings.TrimPrefix(server, "tcp://")}, nil
	}
}

// Client returns the connected client, dialing and PINGing it first if needed.
func (c *Conn) Client(ctx context.Context) (*backend.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ready {
		return c.client, nil
	}
	if c.optsErr != nil {
		return nil, c.optsErr
	}
	if c.client == nil {
		c.client = backend.NewClient(c.opts)
	}
	if err := c.client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrConnect, c.opts.Addr, err)
	}
	c.ready = true
	return c.client, nil
}

// Close releases an owned client. Clients passed to FromClient are left open.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.owned || c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	c.ready = false
	return err
}

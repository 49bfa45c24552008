// Package process is a ports.Store over a host session: the record lives in the
// host.Session and is persisted by its save handler when the session closes.
package process

import (
	"context"

	"github.com/aretw0/satchel/pkg/config"
	"github.com/aretw0/satchel/pkg/domain"
	"github.com/aretw0/satchel/pkg/host"
)

// Store implements ports.Store by reading and writing a host session's values.
// It has no expiry or GC of its own.
type Store struct {
	sess *host.Session
	ns   domain.Namespace
}

// New creates a Store over sess, namespaced by cfg's prefixes.
func New(sess *host.Session, cfg config.Process) *Store {
	return &Store{sess: sess, ns: cfg.Namespace()}
}

// Session returns the host session the store delegates to.
func (s *Store) Session() *host.Session { return s.sess }

func (s *Store) values(ctx context.Context) (domain.Record, error) {
	if err := s.sess.Start(ctx); err != nil {
		return nil, err
	}
	return s.sess.Values(), nil
}

// Set implements ports.Store.
func (s *Store) Set(ctx context.Context, key string, value any) error {
	v, err := s.values(ctx)
	if err != nil {
		return err
	}
	v[s.ns.Key(key)] = value
	return nil
}

// Get implements ports.Store.
func (s *Store) Get(ctx context.Context, key string, def any) (any, error) {
	v, err := s.values(ctx)
	if err != nil {
		return nil, err
	}
	if val, ok := v[s.ns.Key(key)]; ok {
		return val, nil
	}
	return def, nil
}

// Remove implements ports.Store.
func (s *Store) Remove(ctx context.Context, key string) (any, error) {
	v, err := s.values(ctx)
	if err != nil {
		return nil, err
	}
	val, _ := v.Take(s.ns.Key(key))
	return val, nil
}

// Clear implements ports.Store.
func (s *Store) Clear(ctx context.Context) error {
	v, err := s.values(ctx)
	if err != nil {
		return err
	}
	s.ns.Clear(v)
	return nil
}

// SetFlash implements ports.Store.
func (s *Store) SetFlash(ctx context.Context, key string, value any) error {
	v, err := s.values(ctx)
	if err != nil {
		return err
	}
	v[s.ns.FlashKey(key)] = value
	return nil
}

// HasFlash implements ports.Store.
func (s *Store) HasFlash(ctx context.Context, key string) (bool, error) {
	v, err := s.values(ctx)
	if err != nil {
		return false, err
	}
	_, ok := v[s.ns.FlashKey(key)]
	return ok, nil
}

// GetFlash implements ports.Store.
func (s *Store) GetFlash(ctx context.Context, key string, def any) (any, error) {
	v, err := s.values(ctx)
	if err != nil {
		return nil, err
	}
	if val, ok := v.Take(s.ns.FlashKey(key)); ok {
		return val, nil
	}
	return def, nil
}

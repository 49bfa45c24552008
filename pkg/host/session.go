package host

import (
	"context"
	"fmt"

	"github.com/aretw0/satchel/pkg/domain"
	"github.com/aretw0/satchel/pkg/ports"
)

var _ ports.Finalizer = (*Session)(nil)

// Session is the request-scoped state of one visitor. It is started explicitly,
// exposes its record through Values, and is written back by Close.
// A Session is not safe for concurrent use.
type Session struct {
	m  *Manager
	ch ports.IDChannel

	id      string
	values  domain.Record
	started bool
	closed  bool
}

// Start opens the handler, establishes the id and loads the record.
// Calling it again is a no-op.
func (s *Session) Start(ctx context.Context) error {
	if s.closed {
		return domain.ErrClosed
	}
	if s.started {
		return nil
	}

	if err := s.m.open(ctx); err != nil {
		return err
	}
	id, err := s.m.gen.Establish(s.ch)
	if err != nil {
		return fmt.Errorf("failed to establish session id: %w", err)
	}
	values, err := s.m.read(ctx, id)
	if err != nil {
		return err
	}

	s.id = id
	s.values = values
	s.started = true
	return nil
}

// ID returns the session id, or "" before Start.
func (s *Session) ID() string { return s.id }

// Started reports whether Start has succeeded.
func (s *Session) Started() bool { return s.started }

// Values returns the live record. Mutations are persisted by Close.
// It is nil before Start.
func (s *Session) Values() domain.Record { return s.values }

// Close writes the record once and rolls handler GC. Closing a session that never
// started writes nothing. Calling Close again is a no-op.
func (s *Session) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true
	if !s.started {
		return nil
	}

	if err := s.m.write(ctx, s.id, s.values); err != nil {
		return fmt.Errorf("failed to write session %s: %w", s.id, err)
	}
	s.m.maybeGC(ctx)
	return nil
}

// Destroy deletes the stored record and ends the session without writing it back.
func (s *Session) Destroy(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	if err := s.m.destroy(ctx, s.id); err != nil {
		return fmt.Errorf("failed to destroy session %s: %w", s.id, err)
	}
	s.values = domain.Record{}
	s.closed = true
	return nil
}

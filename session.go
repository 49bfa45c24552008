package satchel

import (
	"context"
	"fmt"

	"github.com/aretw0/satchel/pkg/domain"
	"github.com/aretw0/satchel/pkg/host"
	"github.com/aretw0/satchel/pkg/ports"
	"github.com/aretw0/satchel/pkg/sessionid"
)

// TokenLength is the length of anti-forgery tokens.
const TokenLength = 40

var _ ports.Tokener = (*Session)(nil)

// Session is one visitor's store for the duration of a request.
// It is not safe for concurrent use.
type Session struct {
	ports.Store

	raw       ports.Store
	finalizer ports.Finalizer
	gen       sessionid.Generator
	host      *host.Session
	id        string
	closed    bool
}

// ID returns the session id once it is known, or "".
func (s *Session) ID() string {
	switch {
	case s.id != "":
		return s.id
	case s.host != nil:
		return s.host.ID()
	}
	if idr, ok := s.raw.(interface{ ID() string }); ok {
		return idr.ID()
	}
	return ""
}

// Close finalizes the session, persisting it for the file and process drivers.
// Calling Close again is a no-op.
func (s *Session) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.finalizer == nil {
		return nil
	}
	return s.finalizer.Close(ctx)
}

// Token returns the anti-forgery token, creating one if none is stored.
// The token lives under domain.TokenKey and goes through the session's middlewares.
func (s *Session) Token(ctx context.Context) (string, error) {
	v, err := s.Get(ctx, domain.TokenKey, nil)
	if err != nil {
		return "", err
	}
	if tok, ok := v.(string); ok && tok != "" {
		return tok, nil
	}
	return s.RegenerateToken(ctx)
}

// RegenerateToken replaces the anti-forgery token.
func (s *Session) RegenerateToken(ctx context.Context) (string, error) {
	tok, err := s.gen.RandomString(TokenLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	if err := s.Set(ctx, domain.TokenKey, tok); err != nil {
		return "", err
	}
	return tok, nil
}

// Put is Set.
func (s *Session) Put(ctx context.Context, key string, value any) error {
	return s.Set(ctx, key, value)
}

// Pull removes key and returns its value, or def when it was absent.
func (s *Session) Pull(ctx context.Context, key string, def any) (any, error) {
	v, err := s.Remove(ctx, key)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return def, nil
	}
	return v, nil
}

// Forget removes keys, discarding their values.
func (s *Session) Forget(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if _, err := s.Remove(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// Flush is Clear.
func (s *Session) Flush(ctx context.Context) error {
	return s.Clear(ctx)
}

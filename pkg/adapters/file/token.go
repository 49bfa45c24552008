package file

import (
	"context"
	"fmt"

	"github.com/aretw0/satchel/pkg/domain"
)

// TokenLength is the length of anti-forgery tokens.
const TokenLength = 40

// Token returns the session's anti-forgery token, generating and storing one
// under the reserved key if none is set yet.
func (s *Store) Token(ctx context.Context) (string, error) {
	v, err := s.Get(ctx, domain.TokenKey, nil)
	if err != nil {
		return "", err
	}
	if tok, ok := v.(string); ok && tok != "" {
		return tok, nil
	}
	return s.RegenerateToken(ctx)
}

// RegenerateToken replaces the anti-forgery token with a fresh random one.
func (s *Store) RegenerateToken(ctx context.Context) (string, error) {
	if err := s.start(ctx); err != nil {
		return "", err
	}
	tok, err := s.gen.RandomString(TokenLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	if err := s.Set(ctx, domain.TokenKey, tok); err != nil {
		return "", err
	}
	return tok, nil
}

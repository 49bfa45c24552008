package ports

import (
	"context"
)

// Store is the operation set every session backend implements.
// Callers depend only on this interface and can swap backends freely; the
// backends differ only in persistence and expiry characteristics.
type Store interface {
	// Set upserts value under key.
	Set(ctx context.Context, key string, value any) error

	// Get returns the stored value, or def if the key is absent or expired.
	Get(ctx context.Context, key string, def any) (any, error)

	// Remove deletes key and returns its prior value, or nil if it was absent.
	Remove(ctx context.Context, key string) (any, error)

	// Clear deletes every key owned by this store's namespace.
	// Keys of other namespaces sharing the same backend are left untouched.
	Clear(ctx context.Context) error

	// SetFlash stores a one-shot value under the flash namespace.
	SetFlash(ctx context.Context, key string, value any) error

	// HasFlash reports whether a flash entry exists, without consuming it.
	HasFlash(ctx context.Context, key string) (bool, error)

	// GetFlash reads and removes a flash entry, returning def if it is absent.
	GetFlash(ctx context.Context, key string, def any) (any, error)
}

// Tokener is implemented by backends that manage an anti-forgery token natively.
type Tokener interface {
	// Token returns the current token, generating one if none is set.
	Token(ctx context.Context) (string, error)

	// RegenerateToken replaces the token with a fresh one.
	RegenerateToken(ctx context.Context) (string, error)
}

// Finalizer is implemented by backends that persist at the end of a session lifecycle.
type Finalizer interface {
	Close(ctx context.Context) error
}

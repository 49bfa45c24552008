package ports

import (
	"context"
	"time"
)

// SaveHandler persists raw host-session blobs. It is driven by the host session
// lifecycle (pkg/host) rather than called directly by request code.
type SaveHandler interface {
	// Open prepares the handler. It is called once before the first Read.
	Open(ctx context.Context, name string) error

	// Close releases the handler's resources.
	Close(ctx context.Context) error

	// Read returns the serialized blob for a session id, or nil if there is none.
	Read(ctx context.Context, id string) ([]byte, error)

	// Write persists the serialized blob for a session id.
	Write(ctx context.Context, id string, data []byte) error

	// Destroy removes the blob of a session id.
	Destroy(ctx context.Context, id string) error

	// GC removes blobs older than maxLifetime and returns how many were removed.
	GC(ctx context.Context, maxLifetime time.Duration) (int, error)
}

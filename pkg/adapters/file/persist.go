package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/aretw0/satchel/pkg/codec"
	"github.com/aretw0/satchel/pkg/config"
	"github.com/aretw0/satchel/pkg/domain"
	"github.com/aretw0/satchel/pkg/sessionid"
)

// writeLocked replaces the content of path under an exclusive lock.
// The file is truncated in place (not renamed) so readers holding a shared lock never see a torn write.
func writeLocked(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if err := lockExclusive(f); err != nil {
		return fmt.Errorf("failed to lock %s: %w", path, err)
	}
	defer unlock(f) //nolint:errcheck

	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.WriteAt(data, 0); err != nil {
		return err
	}
	return f.Sync()
}

// readLocked reads path under a shared lock.
func readLocked(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := lockShared(f); err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}
	defer unlock(f) //nolint:errcheck

	return io.ReadAll(f)
}

// List returns the ids of the sessions saved under cfg.Dir(), sorted.
// Files whose names are not session ids are ignored.
func List(ctx context.Context, cfg config.File) ([]string, error) {
	entries, err := os.ReadDir(cfg.Dir())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.Type().IsRegular() && sessionid.Valid(entry.Name()) {
			ids = append(ids, entry.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Load decodes the record saved for id. Unlike a Store, it reports corrupt files.
func Load(ctx context.Context, cfg config.File, id string, c codec.Codec) (domain.Record, error) {
	if !sessionid.Valid(id) {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidSessionID, id)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c == nil {
		c = codec.JSON{}
	}

	data, err := readLocked(filepath.Join(cfg.Dir(), id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session %s: %w", id, err)
	}

	record, err := c.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	return record, nil
}

// Delete removes the file saved for id.
func Delete(ctx context.Context, cfg config.File, id string) error {
	if !sessionid.Valid(id) {
		return fmt.Errorf("%w: %q", domain.ErrInvalidSessionID, id)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := os.Remove(filepath.Join(cfg.Dir(), id))
	if errors.Is(err, fs.ErrNotExist) {
		return domain.ErrSessionNotFound
	}
	return err
}

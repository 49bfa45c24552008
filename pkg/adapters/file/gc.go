package file

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/satchel/internal/logging"
	"github.com/aretw0/satchel/pkg/config"
)

// GC removes the session files under cfg.Dir() not modified within cfg.Expire seconds.
// It returns the number of files removed.
func GC(ctx context.Context, cfg config.File) (int, error) {
	return collect(ctx, cfg.Dir(), cfg.TTL(), logging.NewNop())
}

// collect walks dir recursively, skipping dot-entries, and removes regular files
// whose mtime is strictly older than now-ttl. Per-entry failures are logged and skipped.
func collect(ctx context.Context, dir string, ttl time.Duration, logger *slog.Logger) (int, error) {
	now := time.Now()
	removed := 0

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			logger.Debug("GC skipped entry", "path", path, "err", err)
			if d != nil && d.IsDir() && path != dir {
				return fs.SkipDir
			}
			return nil
		}

		if path != dir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			logger.Debug("GC skipped entry", "path", path, "err", err)
			return nil
		}
		if !expired(info.ModTime(), ttl, now) {
			return nil
		}

		if err := os.Remove(path); err != nil {
			logger.Debug("GC failed to remove file", "path", path, "err", err)
			return nil
		}
		removed++
		return nil
	})
	if err != nil && ctx.Err() != nil {
		return removed, err
	}
	return removed, nil
}

// expired reports whether a file last modified at mod is past ttl at now.
// A file exactly ttl old is still live.
func expired(mod time.Time, ttl time.Duration, now time.Time) bool {
	return mod.Before(now.Add(-ttl))
}

package middleware

import (
	"context"
	"log/slog"
	"regexp"

	"github.com/aretw0/satchel/pkg/ports"
)

// Masked replaces values of sensitive keys in log output.
const Masked = "***"

type loggingMiddleware struct {
	next     ports.Store
	logger   *slog.Logger
	patterns []*regexp.Regexp
}

// NewLogging creates a middleware that logs every operation at debug level, and
// failures at warn level. Values of keys matching any of maskPatterns (checked
// recursively inside maps) are logged as Masked. The stored data is never modified.
func NewLogging(logger *slog.Logger, maskPatterns []string) Middleware {
	patterns := make([]*regexp.Regexp, len(maskPatterns))
	for i, p := range maskPatterns {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.Store) ports.Store {
		return &loggingMiddleware{next: next, logger: logger, patterns: patterns}
	}
}

func (m *loggingMiddleware) log(ctx context.Context, op, key string, value any, err error) {
	if err != nil {
		m.logger.WarnContext(ctx, "Session operation failed", "op", op, "key", key, "err", err)
		return
	}
	if !m.logger.Enabled(ctx, slog.LevelDebug) {
		return
	}
	m.logger.DebugContext(ctx, "Session operation", "op", op, "key", key, "value", m.mask(key, value))
}

func (m *loggingMiddleware) Set(ctx context.Context, key string, value any) error {
	err := m.next.Set(ctx, key, value)
	m.log(ctx, "set", key, value, err)
	return err
}

func (m *loggingMiddleware) Get(ctx context.Context, key string, def any) (any, error) {
	v, err := m.next.Get(ctx, key, def)
	m.log(ctx, "get", key, v, err)
	return v, err
}

func (m *loggingMiddleware) Remove(ctx context.Context, key string) (any, error) {
	v, err := m.next.Remove(ctx, key)
	m.log(ctx, "remove", key, v, err)
	return v, err
}

func (m *loggingMiddleware) Clear(ctx context.Context) error {
	err := m.next.Clear(ctx)
	m.log(ctx, "clear", "", nil, err)
	return err
}

func (m *loggingMiddleware) SetFlash(ctx context.Context, key string, value any) error {
	err := m.next.SetFlash(ctx, key, value)
	m.log(ctx, "set_flash", key, value, err)
	return err
}

func (m *loggingMiddleware) HasFlash(ctx context.Context, key string) (bool, error) {
	ok, err := m.next.HasFlash(ctx, key)
	m.log(ctx, "has_flash", key, ok, err)
	return ok, err
}

func (m *loggingMiddleware) GetFlash(ctx context.Context, key string, def any) (any, error) {
	v, err := m.next.GetFlash(ctx, key, def)
	m.log(ctx, "get_flash", key, v, err)
	return v, err
}

// mask returns value, or a masked deep copy of it, for logging.
func (m *loggingMiddleware) mask(key string, value any) any {
	if m.matches(key) {
		return Masked
	}
	if sub, ok := value.(map[string]any); ok {
		return m.maskMap(sub)
	}
	return value
}

func (m *loggingMiddleware) maskMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = m.mask(k, v)
	}
	return out
}

func (m *loggingMiddleware) matches(key string) bool {
	for _, p := range m.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}

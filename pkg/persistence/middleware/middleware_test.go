package middleware_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/aretw0/satchel/internal/logging"
	"github.com/aretw0/satchel/pkg/domain"
	"github.com/aretw0/satchel/pkg/persistence/middleware"
	"github.com/aretw0/satchel/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockStore is a map-based store for testing middleware.
type MockStore struct {
	ns   domain.Namespace
	data domain.Record
	err  error
}

func NewMockStore(ns domain.Namespace, data domain.Record) *MockStore {
	return &MockStore{ns: ns, data: data}
}

func (s *MockStore) Set(ctx context.Context, key string, value any) error {
	if s.err != nil {
		return s.err
	}
	s.data[s.ns.Key(key)] = value
	return nil
}

func (s *MockStore) Get(ctx context.Context, key string, def any) (any, error) {
	if s.err != nil {
		return nil, s.err
	}
	if v, ok := s.data[s.ns.Key(key)]; ok {
		return v, nil
	}
	return def, nil
}

func (s *MockStore) Remove(ctx context.Context, key string) (any, error) {
	v, _ := s.data.Take(s.ns.Key(key))
	return v, s.err
}

func (s *MockStore) Clear(ctx context.Context) error {
	s.ns.Clear(s.data)
	return s.err
}

func (s *MockStore) SetFlash(ctx context.Context, key string, value any) error {
	s.data[s.ns.FlashKey(key)] = value
	return s.err
}

func (s *MockStore) HasFlash(ctx context.Context, key string) (bool, error) {
	_, ok := s.data[s.ns.FlashKey(key)]
	return ok, s.err
}

func (s *MockStore) GetFlash(ctx context.Context, key string, def any) (any, error) {
	if v, ok := s.data.Take(s.ns.FlashKey(key)); ok {
		return v, s.err
	}
	return def, s.err
}

func TestChain_Contract(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := middleware.NewMetricsCollectors(reg)
	require.NoError(t, err)

	ports.RunStoreContract(t, func(t *testing.T) func(domain.Namespace) ports.Store {
		shared := domain.Record{}
		return func(ns domain.Namespace) ports.Store {
			return middleware.Chain(NewMockStore(ns, shared),
				metrics.Middleware("mock"),
				middleware.NewLogging(logging.NewNop(), nil),
			)
		}
	})
}

func TestChain_Order(t *testing.T) {
	var order []string
	tag := func(name string) middleware.Middleware {
		return func(next ports.Store) ports.Store {
			order = append(order, name)
			return next
		}
	}

	middleware.Chain(NewMockStore(domain.Namespace{}, domain.Record{}), tag("outer"), tag("inner"))
	assert.Equal(t, []string{"inner", "outer"}, order, "the first middleware wraps last")
}

func TestMetrics(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	metrics, err := middleware.NewMetricsCollectors(reg)
	require.NoError(t, err)

	mock := NewMockStore(domain.Namespace{KeyPrefix: "p."}, domain.Record{})
	store := metrics.Middleware("file")(mock)

	require.NoError(t, store.Set(ctx, "a", 1))
	require.NoError(t, store.Set(ctx, "b", 2))
	_, err = store.Get(ctx, "a", nil)
	require.NoError(t, err)

	require.NoError(t, store.SetFlash(ctx, "msg", "hi"))
	v, err := store.GetFlash(ctx, "msg", "none")
	require.NoError(t, err)
	assert.Equal(t, "hi", v)
	v, err = store.GetFlash(ctx, "msg", "none")
	require.NoError(t, err)
	assert.Equal(t, "none", v, "a miss still returns the caller's default")

	mock.err = errors.New("down")
	assert.Error(t, store.Set(ctx, "c", 3))

	expected := `
# HELP satchel_store_operations_total Session store operations by backend, operation and result.
# TYPE satchel_store_operations_total counter
satchel_store_operations_total{backend="file",operation="get",result="ok"} 1
satchel_store_operations_total{backend="file",operation="get_flash",result="ok"} 2
satchel_store_operations_total{backend="file",operation="set",result="error"} 1
satchel_store_operations_total{backend="file",operation="set",result="ok"} 2
satchel_store_operations_total{backend="file",operation="set_flash",result="ok"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "satchel_store_operations_total"))

	flash := `
# HELP satchel_flash_reads_total Flash reads by backend and whether a message was found.
# TYPE satchel_flash_reads_total counter
satchel_flash_reads_total{backend="file",outcome="hit"} 1
satchel_flash_reads_total{backend="file",outcome="miss"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(flash), "satchel_flash_reads_total"))
}

func TestMetrics_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := middleware.NewMetricsCollectors(reg)
	require.NoError(t, err)
	second, err := middleware.NewMetricsCollectors(reg)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, first.Middleware("a")(NewMockStore(domain.Namespace{}, domain.Record{})).Set(ctx, "k", 1))
	require.NoError(t, second.Middleware("a")(NewMockStore(domain.Namespace{}, domain.Record{})).Set(ctx, "k", 1))

	count, err := testutil.GatherAndCount(reg, "satchel_store_operations_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "both middlewares feed one series")
}

func TestLogging_Masking(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, slog.LevelDebug)

	data := domain.Record{}
	store := middleware.NewLogging(logger, []string{"password", "ssn"})(NewMockStore(domain.Namespace{}, data))

	require.NoError(t, store.Set(ctx, "user_password", "secret123"))
	require.NoError(t, store.Set(ctx, "details", map[string]any{
		"address":    "123 St",
		"ssn_number": "999-99-9999",
	}))
	require.NoError(t, store.Set(ctx, "username", "jdoe"))

	out := buf.String()
	assert.NotContains(t, out, "secret123")
	assert.NotContains(t, out, "999-99-9999")
	assert.Contains(t, out, "123 St")
	assert.Contains(t, out, "jdoe")
	assert.Contains(t, out, middleware.Masked)

	assert.Equal(t, "secret123", data["user_password"], "stored data is not masked")
	details := data["details"].(map[string]any)
	assert.Equal(t, "999-99-9999", details["ssn_number"])
}

func TestLogging_Failures(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, slog.LevelWarn)

	mock := NewMockStore(domain.Namespace{}, domain.Record{})
	mock.err = errors.New("disk full")
	store := middleware.NewLogging(logger, nil)(mock)

	assert.Error(t, store.Set(ctx, "k", "v"))
	assert.Contains(t, buf.String(), "Session operation failed")
	assert.Contains(t, buf.String(), "err=\"disk full\"")
}

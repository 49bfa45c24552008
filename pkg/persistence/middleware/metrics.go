package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/aretw0/satchel/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors shared by every store wrapped with its Middleware.
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	flash      *prometheus.CounterVec
}

// NewMetricsCollectors creates the collectors and registers them with reg.
// Collectors already registered by an earlier call are reused.
func NewMetricsCollectors(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "satchel",
			Name:      "store_operations_total",
			Help:      "Session store operations by backend, operation and result.",
		}, []string{"backend", "operation", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "satchel",
			Name:      "store_operation_duration_seconds",
			Help:      "Latency of session store operations.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"backend", "operation"}),
		flash: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "satchel",
			Name:      "flash_reads_total",
			Help:      "Flash reads by backend and whether a message was found.",
		}, []string{"backend", "outcome"}),
	}

	var err error
	if m.operations, err = register(reg, m.operations); err != nil {
		return nil, err
	}
	if m.duration, err = register(reg, m.duration); err != nil {
		return nil, err
	}
	if m.flash, err = register(reg, m.flash); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Middleware returns a middleware recording operations of a store labeled backend.
func (m *Metrics) Middleware(backend string) Middleware {
	return func(next ports.Store) ports.Store {
		return &metricsMiddleware{next: next, m: m, backend: backend}
	}
}

type metricsMiddleware struct {
	next    ports.Store
	m       *Metrics
	backend string
}

func (mw *metricsMiddleware) observe(op string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	mw.m.operations.WithLabelValues(mw.backend, op, result).Inc()
	mw.m.duration.WithLabelValues(mw.backend, op).Observe(time.Since(start).Seconds())
}

func (mw *metricsMiddleware) Set(ctx context.Context, key string, value any) error {
	start := time.Now()
	err := mw.next.Set(ctx, key, value)
	mw.observe("set", start, err)
	return err
}

func (mw *metricsMiddleware) Get(ctx context.Context, key string, def any) (any, error) {
	start := time.Now()
	v, err := mw.next.Get(ctx, key, def)
	mw.observe("get", start, err)
	return v, err
}

func (mw *metricsMiddleware) Remove(ctx context.Context, key string) (any, error) {
	start := time.Now()
	v, err := mw.next.Remove(ctx, key)
	mw.observe("remove", start, err)
	return v, err
}

func (mw *metricsMiddleware) Clear(ctx context.Context) error {
	start := time.Now()
	err := mw.next.Clear(ctx)
	mw.observe("clear", start, err)
	return err
}

func (mw *metricsMiddleware) SetFlash(ctx context.Context, key string, value any) error {
	start := time.Now()
	err := mw.next.SetFlash(ctx, key, value)
	mw.observe("set_flash", start, err)
	return err
}

func (mw *metricsMiddleware) HasFlash(ctx context.Context, key string) (bool, error) {
	start := time.Now()
	ok, err := mw.next.HasFlash(ctx, key)
	mw.observe("has_flash", start, err)
	return ok, err
}

func (mw *metricsMiddleware) GetFlash(ctx context.Context, key string, def any) (any, error) {
	start := time.Now()
	hit := false
	v, err := mw.next.GetFlash(ctx, key, flashMiss)
	if v == flashMiss {
		v = def
	} else {
		hit = true
	}
	mw.observe("get_flash", start, err)
	if err == nil {
		outcome := "miss"
		if hit {
			outcome = "hit"
		}
		mw.m.flash.WithLabelValues(mw.backend, outcome).Inc()
	}
	return v, err
}

// flashMiss is passed as the default to tell a miss from a stored value equal to def.
var flashMiss = &struct{ miss bool }{true}

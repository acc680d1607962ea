// Package resilient wraps a remote cache layer with a circuit breaker and a
// per-call timeout, so a slow or failing cache degrades to a miss instead of
// stalling ledger reads.
package resilient

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"github.com/tinoosan/fintrack/internal/cache"
	"github.com/tinoosan/fintrack/internal/ledger"
	"github.com/tinoosan/fintrack/internal/metrics"
)

// Config tunes the wrapper.
type Config struct {
	// Timeout bounds each cache call; zero disables it.
	Timeout time.Duration
	// MaxRequests allowed through while half-open.
	MaxRequests uint32
	// Interval clears the closed-state counts; zero never clears.
	Interval time.Duration
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
}

// DefaultConfig returns conservative defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:             250 * time.Millisecond,
		MaxRequests:         1,
		Interval:            time.Minute,
		OpenTimeout:         30 * time.Second,
		ConsecutiveFailures: 5,
	}
}

// Layer is a cache.AccountOptions guarded by a circuit breaker.
type Layer struct {
	next    cache.AccountOptions
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
}

// Wrap returns next behind a circuit breaker.
func Wrap(next cache.AccountOptions, cfg Config, logger *slog.Logger) *Layer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = 5
	}
	name := next.Name()
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		IsSuccessful: func(err error) bool { return err == nil || cache.IsMiss(err) },
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("cache circuit breaker state changed", "layer", name, "from", from.String(), "to", to.String())
			metrics.BreakerState(name, int(to))
		},
	}
	return &Layer{next: next, cb: gobreaker.NewCircuitBreaker(settings), timeout: cfg.Timeout}
}

func (l *Layer) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if l.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, l.timeout)
}

func (l *Layer) Get(ctx context.Context, ownerID uuid.UUID) ([]ledger.AccountOption, error) {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()
	v, err := l.cb.Execute(func() (interface{}, error) { return l.next.Get(ctx, ownerID) })
	if err != nil {
		return nil, mapErr(err)
	}
	opts, _ := v.([]ledger.AccountOption)
	return opts, nil
}

func (l *Layer) Set(ctx context.Context, ownerID uuid.UUID, opts []ledger.AccountOption) error {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()
	_, err := l.cb.Execute(func() (interface{}, error) { return nil, l.next.Set(ctx, ownerID, opts) })
	return mapErr(err)
}

// Invalidate bypasses the breaker; it is attempted even while the breaker is open.
func (l *Layer) Invalidate(ctx context.Context, ownerID uuid.UUID) error {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()
	return l.next.Invalidate(ctx, ownerID)
}

// State exposes the breaker state for tests and readiness checks.
func (l *Layer) State() gobreaker.State { return l.cb.State() }

func (l *Layer) Name() string { return l.next.Name() }
func (l *Layer) Close() error { return l.next.Close() }

func mapErr(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return cache.ErrUnavailable
	}
	return err
}

var _ cache.AccountOptions = (*Layer)(nil)

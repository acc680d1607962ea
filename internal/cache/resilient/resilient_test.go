package resilient

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinoosan/fintrack/internal/cache"
	"github.com/tinoosan/fintrack/internal/ledger"
)

type flaky struct {
	cache.Nop
	fail  bool
	calls int
}

func (f *flaky) Get(context.Context, uuid.UUID) ([]ledger.AccountOption, error) {
	f.calls++
	if f.fail { return nil, errors.New("connection refused") }
	return []ledger.AccountOption{{Name: "Cash"}}, nil
}

func (f *flaky) Name() string { return "flaky" }

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestLayer_TripsAfterConsecutiveFailures(t *testing.T) {
	next := &flaky{fail: true}
	l := Wrap(next, Config{ConsecutiveFailures: 3, OpenTimeout: time.Hour}, quiet())
	ctx := context.Background()
	owner := uuid.New()

	for i := 0; i < 3; i++ {
		_, err := l.Get(ctx, owner)
		require.Error(t, err)
		assert.NotErrorIs(t, err, cache.ErrUnavailable)
	}
	assert.Equal(t, gobreaker.StateOpen, l.State())

	_, err := l.Get(ctx, owner)
	assert.ErrorIs(t, err, cache.ErrUnavailable)
	assert.Equal(t, 3, next.calls, "open breaker short-circuits")
}

func TestLayer_MissesDoNotTrip(t *testing.T) {
	l := Wrap(cache.Nop{}, Config{ConsecutiveFailures: 1}, quiet())
	for i := 0; i < 5; i++ {
		_, err := l.Get(context.Background(), uuid.New())
		assert.True(t, cache.IsMiss(err))
	}
	assert.Equal(t, gobreaker.StateClosed, l.State())
	assert.Equal(t, "none", l.Name())
}

func TestLayer_PassesThroughWhenHealthy(t *testing.T) {
	l := Wrap(&flaky{}, DefaultConfig(), quiet())
	opts, err := l.Get(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "Cash", opts[0].Name)
	require.NoError(t, l.Invalidate(context.Background(), uuid.New()))
}

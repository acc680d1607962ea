package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinoosan/fintrack/internal/cache"
	"github.com/tinoosan/fintrack/internal/ledger"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	cfg := DefaultConfig()
	cfg.Addr = addr
	cfg.KeyPrefix = "fintrack-test:" + uuid.NewString() + ":"
	cfg.TTL = time.Minute
	c, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCache_RoundTrip(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	owner := uuid.New()

	_, err := c.Get(ctx, owner)
	assert.True(t, cache.IsMiss(err))

	opts := []ledger.AccountOption{{ID: uuid.New(), Name: "Cash", CurrencyCode: "EUR"}}
	require.NoError(t, c.Set(ctx, owner, opts))
	got, err := c.Get(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, opts, got)

	require.NoError(t, c.Invalidate(ctx, owner))
	_, err = c.Get(ctx, owner)
	assert.True(t, cache.IsMiss(err))
	assert.NoError(t, c.Ping(ctx))
}

func TestCache_EmptyListingIsAHit(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	owner := uuid.New()

	require.NoError(t, c.Set(ctx, owner, nil))
	got, err := c.Get(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNew_RequiresAddress(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

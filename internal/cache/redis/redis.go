// Package redis stores account option listings in Redis as JSON, so several
// API processes share one cache and one invalidation.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/rueidis"
	"github.com/tinoosan/fintrack/internal/cache"
	"github.com/tinoosan/fintrack/internal/ledger"
)

// Config holds the connection settings.
type Config struct {
	Addr        string
	Username    string
	Password    string
	DB          int
	KeyPrefix   string
	TTL         time.Duration
	DialTimeout time.Duration
}

// DefaultConfig returns settings for a local single-node Redis.
func DefaultConfig() Config {
	return Config{
		Addr:        "localhost:6379",
		KeyPrefix:   "fintrack:",
		TTL:         cache.DefaultTTL,
		DialTimeout: 5 * time.Second,
	}
}

// Cache is a rueidis-backed cache.AccountOptions.
type Cache struct {
	client rueidis.Client
	cfg    Config
}

// New connects to Redis and verifies the connection with PING.
func New(cfg Config) (*Cache, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis: no address configured")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = cache.DefaultTTL
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: []string{cfg.Addr},
		Username:    cfg.Username,
		Password:    cfg.Password,
		SelectDB:    cfg.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("redis: failed to create client: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: failed to ping server: %w", err)
	}
	return &Cache{client: client, cfg: cfg}, nil
}

func (c *Cache) key(ownerID uuid.UUID) string { return c.cfg.KeyPrefix + cache.Key(ownerID) }

func (c *Cache) Get(ctx context.Context, ownerID uuid.UUID) ([]ledger.AccountOption, error) {
	resp := c.client.Do(ctx, c.client.B().Get().Key(c.key(ownerID)).Build())
	if err := resp.Error(); err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, cache.ErrMiss
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	data, err := resp.AsBytes()
	if err != nil {
		return nil, fmt.Errorf("redis get: failed to read response: %w", err)
	}
	var opts []ledger.AccountOption
	if err := json.Unmarshal(data, &opts); err != nil {
		return nil, fmt.Errorf("redis get: failed to unmarshal: %w", err)
	}
	return opts, nil
}

func (c *Cache) Set(ctx context.Context, ownerID uuid.UUID, opts []ledger.AccountOption) error {
	if opts == nil {
		opts = []ledger.AccountOption{}
	}
	data, err := json.Marshal(opts)
	if err != nil {
		return fmt.Errorf("redis set: failed to marshal: %w", err)
	}
	cmd := c.client.B().Set().Key(c.key(ownerID)).Value(string(data)).Ex(c.cfg.TTL).Build()
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *Cache) Invalidate(ctx context.Context, ownerID uuid.UUID) error {
	if err := c.client.Do(ctx, c.client.B().Del().Key(c.key(ownerID)).Build()).Error(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Do(ctx, c.client.B().Ping().Build()).Error()
}

func (c *Cache) Name() string { return "redis" }

func (c *Cache) Close() error {
	c.client.Close()
	return nil
}

var _ cache.AccountOptions = (*Cache)(nil)

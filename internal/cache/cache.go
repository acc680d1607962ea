// Package cache holds the read-side cache for account picker listings.
//
// Entries are keyed by owner id and must be invalidated explicitly by the
// account service whenever an owner's accounts are created, edited or deleted.
// Every entry also carries a TTL so a lost invalidation heals on its own.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tinoosan/fintrack/internal/ledger"
)

var (
	// ErrMiss is returned by Get when no live entry exists for the owner.
	ErrMiss = errors.New("cache: miss")
	// ErrUnavailable is returned when a remote layer is short-circuited.
	ErrUnavailable = errors.New("cache: layer unavailable")
)

// DefaultTTL bounds the staleness of an entry.
const DefaultTTL = 10 * time.Minute

// AccountOptions caches the per-owner account picker listing.
type AccountOptions interface {
	Get(ctx context.Context, ownerID uuid.UUID) ([]ledger.AccountOption, error)
	Set(ctx context.Context, ownerID uuid.UUID, opts []ledger.AccountOption) error
	Invalidate(ctx context.Context, ownerID uuid.UUID) error
	// Name identifies the layer in logs and metrics.
	Name() string
	Close() error
}

// Key returns the cache key for an owner.
func Key(ownerID uuid.UUID) string { return "account-options:" + ownerID.String() }

// IsMiss reports whether err is a cache miss.
func IsMiss(err error) bool { return errors.Is(err, ErrMiss) }

// Nop never stores anything; every Get is a miss.
type Nop struct{}

func (Nop) Get(context.Context, uuid.UUID) ([]ledger.AccountOption, error)  { return nil, ErrMiss }
func (Nop) Set(context.Context, uuid.UUID, []ledger.AccountOption) error    { return nil }
func (Nop) Invalidate(context.Context, uuid.UUID) error                     { return nil }
func (Nop) Name() string                                                    { return "none" }
func (Nop) Close() error                                                    { return nil }

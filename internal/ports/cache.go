package ports

import (
	"context"
	"time"
)

// Cache is a small key-value store for operational state such as the last
// sweep report. A zero ttl keeps the value until overwritten.
type Cache interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// LastSweepKey holds the JSON report of the most recent deadline sweep.
const LastSweepKey = "notifications:last_sweep"

// Package lock provides the sweep lock: a Redis lease when several
// replicas run the scheduler, an in-process mutex otherwise.
package lock

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"rncflow/internal/errs"
	"rncflow/internal/ports"
)

type RedisLocker struct {
	client *redislock.Client
	prefix string
}

var _ ports.Locker = (*RedisLocker)(nil)

func NewRedisLocker(rdb redis.UniversalClient, prefix string) *RedisLocker {
	return &RedisLocker{client: redislock.New(rdb), prefix: prefix}
}

func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	lease, err := l.client.Obtain(ctx, l.prefix+key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errs.Wrapf(err, "obtain lock %q", key)
	}
	return func(releaseCtx context.Context) error {
		if err := lease.Release(releaseCtx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			return errs.Wrapf(err, "release lock %q", key)
		}
		return nil
	}, true, nil
}

// Package lock provides short-lived distributed locks backed by Redis.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"

	redisclient "github.com/angelmondragon/leatherworks-erp/pkg/redis"
)

// ErrNotObtained is returned when another holder owns the lock.
var ErrNotObtained = errors.New("lock not obtained")

// Releaser frees a held lock.
type Releaser interface {
	Release(ctx context.Context) error
}

// Locker acquires a named lock for at most ttl.
type Locker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (Releaser, error)
}

type keyer interface {
	LockKey(parts ...string) string
}

// RedisLocker implements Locker with bsm/redislock.
type RedisLocker struct {
	client  *redislock.Client
	keys    keyer
	retries int
	backoff time.Duration
}

// NewRedisLocker wires a locker on top of the shared Redis client.
func NewRedisLocker(client *redisclient.Client) (*RedisLocker, error) {
	if client == nil || client.Raw() == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return &RedisLocker{
		client:  redislock.New(client.Raw()),
		keys:    client,
		retries: 3,
		backoff: 100 * time.Millisecond,
	}, nil
}

// Acquire obtains the lock. A held lock is retried three times with a 100ms
// linear backoff before Acquire gives up with ErrNotObtained.
func (l *RedisLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (Releaser, error) {
	opts := &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(l.backoff), l.retries),
	}
	held, err := l.client.Obtain(ctx, l.keys.LockKey(name), ttl, opts)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrNotObtained
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", name, err)
	}
	return held, nil
}

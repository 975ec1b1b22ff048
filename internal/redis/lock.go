package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("lock not acquired")
)

// Locker serializes the critical sections of the queue and booking flows.
// Every mutation of a doctor's queue goes through WithDoctorLock; every
// slot claim goes through WithSlotLock keyed by (doctor, slot time).
type Locker interface {
	WithDoctorLock(ctx context.Context, doctorID uuid.UUID, fn func(ctx context.Context) error) error
	WithSlotLock(ctx context.Context, doctorID uuid.UUID, slotTime time.Time, fn func(ctx context.Context) error) error
}

type redisKeyedLocker struct {
	client  *redis.Client
	ttl     time.Duration
	maxWait time.Duration
}

// NewRedisKeyedLocker creates a locker backed by per-key Redis SetNX locks.
// Acquisition retries until maxWait elapses so that short contention on a
// busy doctor resolves in order instead of bouncing callers.
func NewRedisKeyedLocker(client *redis.Client, ttl, maxWait time.Duration) Locker {
	return &redisKeyedLocker{
		client:  client,
		ttl:     ttl,
		maxWait: maxWait,
	}
}

func (l *redisKeyedLocker) WithDoctorLock(ctx context.Context, doctorID uuid.UUID, fn func(ctx context.Context) error) error {
	key := fmt.Sprintf("lock:doctor:%s", doctorID.String())
	return l.withLock(ctx, key, fn)
}

func (l *redisKeyedLocker) WithSlotLock(ctx context.Context, doctorID uuid.UUID, slotTime time.Time, fn func(ctx context.Context) error) error {
	key := fmt.Sprintf("lock:slot:%s:%d", doctorID.String(), slotTime.UTC().Unix())
	return l.withLock(ctx, key, fn)
}

const acquireRetryInterval = 25 * time.Millisecond

func (l *redisKeyedLocker) withLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	token := uuid.NewString()

	deadline := time.Now().Add(l.maxWait)
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return ErrLockNotAcquired
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(acquireRetryInterval):
		}
	}

	defer func() {
		_ = l.release(ctx, key, token)
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisKeyedLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release lock %s: %w", key, err)
	}
	return nil
}

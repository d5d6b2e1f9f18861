package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginLimiter tracks failed sign-in attempts per client and locks the client
// out once it reaches the limit. Failures are only recorded while unlocked.
type LoginLimiter interface {
	// LockedFor returns how long key stays locked, or zero when it is not.
	LockedFor(ctx context.Context, key string) (time.Duration, error)
	// RecordFailure counts a failed attempt and returns the lockout it
	// started, or zero when the limit has not been reached yet.
	RecordFailure(ctx context.Context, key string) (time.Duration, error)
	Reset(ctx context.Context, key string) error
}

type RedisLoginLimiter struct {
	rdb         *redis.Client
	maxAttempts int64
	lockout     time.Duration
}

func NewRedisLoginLimiter(rdb *redis.Client, maxAttempts int, lockout time.Duration) *RedisLoginLimiter {
	return &RedisLoginLimiter{rdb: rdb, maxAttempts: int64(maxAttempts), lockout: lockout}
}

func attemptsKey(key string) string { return "login:attempts:" + key }
func lockKey(key string) string     { return "login:lock:" + key }

func (l *RedisLoginLimiter) LockedFor(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := l.rdb.PTTL(ctx, lockKey(key)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("cache.LockedFor: %w", err)
	}
	// PTTL is -2 for a missing key and -1 for one without expiry.
	if ttl <= 0 {
		return 0, nil
	}
	return ttl, nil
}

func (l *RedisLoginLimiter) RecordFailure(ctx context.Context, key string) (time.Duration, error) {
	var incr *redis.IntCmd
	_, err := l.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, attemptsKey(key))
		pipe.Expire(ctx, attemptsKey(key), l.lockout)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("cache.RecordFailure: %w", err)
	}
	if incr.Val() < l.maxAttempts {
		return 0, nil
	}

	// The counter is cleared together with the lockout, so the next window
	// starts from zero.
	_, err = l.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, lockKey(key), incr.Val(), l.lockout)
		pipe.Del(ctx, attemptsKey(key))
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("cache.RecordFailure lock: %w", err)
	}
	return l.lockout, nil
}

func (l *RedisLoginLimiter) Reset(ctx context.Context, key string) error {
	if err := l.rdb.Del(ctx, attemptsKey(key), lockKey(key)).Err(); err != nil {
		return fmt.Errorf("cache.Reset: %w", err)
	}
	return nil
}

// MemoryLoginLimiter is a single-process LoginLimiter. Expired entries are
// swept at most once per lockout window, so the map only holds keys that
// failed within the last two windows.
type MemoryLoginLimiter struct {
	mu          sync.Mutex
	maxAttempts int
	lockout     time.Duration
	now         func() time.Time
	entries     map[string]*limiterEntry
	lastSweep   time.Time
}

type limiterEntry struct {
	attempts    int
	lastFailure time.Time
	lockedUntil time.Time
}

func NewMemoryLoginLimiter(maxAttempts int, lockout time.Duration, now func() time.Time) *MemoryLoginLimiter {
	if now == nil {
		now = time.Now
	}
	return &MemoryLoginLimiter{
		maxAttempts: maxAttempts,
		lockout:     lockout,
		now:         now,
		entries:     make(map[string]*limiterEntry),
	}
}

// entry returns the live entry for key, dropping it once the lockout or the
// failure window has elapsed. Callers hold mu.
func (l *MemoryLoginLimiter) entry(key string, now time.Time) *limiterEntry {
	e, ok := l.entries[key]
	if !ok {
		return nil
	}
	if !e.lockedUntil.IsZero() {
		if now.Before(e.lockedUntil) {
			return e
		}
		delete(l.entries, key)
		return nil
	}
	if now.Sub(e.lastFailure) >= l.lockout {
		delete(l.entries, key)
		return nil
	}
	return e
}

// sweep drops every expired entry. Callers hold mu.
func (l *MemoryLoginLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.lockout {
		return
	}
	l.lastSweep = now
	for key := range l.entries {
		l.entry(key, now)
	}
}

func (l *MemoryLoginLimiter) LockedFor(_ context.Context, key string) (time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e := l.entry(key, now)
	if e == nil || e.lockedUntil.IsZero() {
		return 0, nil
	}
	return e.lockedUntil.Sub(now), nil
}

func (l *MemoryLoginLimiter) RecordFailure(_ context.Context, key string) (time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)
	e := l.entry(key, now)
	if e == nil {
		e = &limiterEntry{}
		l.entries[key] = e
	}
	if !e.lockedUntil.IsZero() {
		return e.lockedUntil.Sub(now), nil
	}
	e.attempts++
	e.lastFailure = now
	if e.attempts >= l.maxAttempts {
		e.lockedUntil = now.Add(l.lockout)
		return l.lockout, nil
	}
	return 0, nil
}

func (l *MemoryLoginLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key)
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"skillswap/metrics"
	"skillswap/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ErrLockTimeout the pair lock could not be acquired within the wait bound
var ErrLockTimeout = errors.New("pair lock wait timed out")

// PairLocker serializes transitions of one unordered pair.
// Lock(a, b) and Lock(b, a) take the same lock.
type PairLocker interface {
	Lock(ctx context.Context, a, b uuid.UUID) (unlock func(), err error)
}

const defaultLockStripes = 256

// LocalPairLocker in-process pair lock over a fixed set of striped semaphores
type LocalPairLocker struct {
	stripes []chan struct{}
	wait    time.Duration
}

func NewLocalPairLocker(stripes int, wait time.Duration) *LocalPairLocker {
	if stripes <= 0 {
		stripes = defaultLockStripes
	}
	l := &LocalPairLocker{stripes: make([]chan struct{}, stripes), wait: wait}
	for i := range l.stripes {
		l.stripes[i] = make(chan struct{}, 1)
	}
	return l
}

func (l *LocalPairLocker) Lock(ctx context.Context, a, b uuid.UUID) (func(), error) {
	low, high := model.OrderPair(a, b)
	h := fnv.New32a()
	h.Write(low[:])
	h.Write(high[:])
	stripe := l.stripes[h.Sum32()%uint32(len(l.stripes))]

	start := time.Now()
	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case stripe <- struct{}{}:
		metrics.RecordPairLockWait("local", true, time.Since(start))
		return func() { <-stripe }, nil
	case <-timer.C:
		metrics.RecordPairLockWait("local", false, time.Since(start))
		return nil, ErrLockTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// releaseScript deletes the lock only if it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisPairLocker cross-instance pair lock (SETNX with a random token)
type RedisPairLocker struct {
	rdb          *redis.Client
	ttl          time.Duration
	wait         time.Duration
	pollInterval time.Duration
}

func NewRedisPairLocker(rdb *redis.Client, ttl, wait time.Duration) *RedisPairLocker {
	return &RedisPairLocker{
		rdb:          rdb,
		ttl:          ttl,
		wait:         wait,
		pollInterval: 20 * time.Millisecond,
	}
}

func pairLockKey(a, b uuid.UUID) string {
	low, high := model.OrderPair(a, b)
	return fmt.Sprintf("lock:match_pair:%s:%s", low, high)
}

func (l *RedisPairLocker) Lock(ctx context.Context, a, b uuid.UUID) (func(), error) {
	key := pairLockKey(a, b)
	token := uuid.NewString()
	start := time.Now()
	deadline := start.Add(l.wait)

	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire pair lock: %w", err)
		}
		if ok {
			metrics.RecordPairLockWait("redis", true, time.Since(start))
			return func() { l.release(key, token) }, nil
		}

		if time.Now().After(deadline) {
			metrics.RecordPairLockWait("redis", false, time.Since(start))
			return nil, ErrLockTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.pollInterval):
		}
	}
}

func (l *RedisPairLocker) release(key, token string) {
	// the request context may already be cancelled
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to release pair lock")
	}
}

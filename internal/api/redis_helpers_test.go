package api

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLoginStore struct {
	counts map[string]int64
	ttls   map[string]time.Duration
	err    error
}

func newFakeLoginStore() *fakeLoginStore {
	return &fakeLoginStore{counts: map[string]int64{}, ttls: map[string]time.Duration{}}
}

func (f *fakeLoginStore) Incr(_ context.Context, key string) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	f.counts[key]++
	return redis.NewIntResult(f.counts[key], nil)
}

func (f *fakeLoginStore) Expire(_ context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	f.ttls[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func (f *fakeLoginStore) TTL(_ context.Context, key string) *redis.DurationCmd {
	return redis.NewDurationResult(f.ttls[key], f.err)
}

func (f *fakeLoginStore) Set(_ context.Context, key string, _ any, expiration time.Duration) *redis.StatusCmd {
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeLoginStore) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, k := range keys {
		delete(f.counts, k)
		delete(f.ttls, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func TestLoginGuard_RateLimitPerHourBucket(t *testing.T) {
	store := newFakeLoginStore()
	g := newLoginGuard(store, LoginProtection{RateLimitPerHour: 2, LockThreshold: 5, LockTTL: time.Minute})
	now := time.Date(2026, 3, 1, 10, 15, 0, 0, time.UTC)
	g.now = func() time.Time { return now }
	ctx := context.Background()

	assert.False(t, g.overRate(ctx, "1.2.3.4", "alice"))
	assert.False(t, g.overRate(ctx, "1.2.3.4", "alice"))
	assert.True(t, g.overRate(ctx, "1.2.3.4", "alice"))
	assert.False(t, g.overRate(ctx, "5.6.7.8", "alice"), "不同 IP 独立计数")
	assert.Equal(t, time.Hour, store.ttls["skillswipe:login:rate:1.2.3.4:alice:2026030110"])

	now = now.Add(time.Hour)
	assert.False(t, g.overRate(ctx, "1.2.3.4", "alice"), "下一个小时重新计数")
}

func TestLoginGuard_LocksAfterThresholdAndResets(t *testing.T) {
	store := newFakeLoginStore()
	g := newLoginGuard(store, LoginProtection{LockThreshold: 3, LockTTL: 15 * time.Minute})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		require.NoError(t, g.recordFailure(ctx, "bob"))
	}
	assert.False(t, g.locked(ctx, "bob"))
	require.NoError(t, g.recordFailure(ctx, "bob"))
	assert.True(t, g.locked(ctx, "bob"))
	assert.Equal(t, 15*time.Minute, store.ttls[failKey("bob")])

	g.reset(ctx, "bob")
	assert.Zero(t, store.counts[failKey("bob")])
}

func TestLoginGuard_RedisDownFailsOpen(t *testing.T) {
	store := newFakeLoginStore()
	store.err = errors.New("connection refused")
	g := newLoginGuard(store, LoginProtection{RateLimitPerHour: 1, LockThreshold: 1, LockTTL: time.Minute})
	ctx := context.Background()

	assert.False(t, g.overRate(ctx, "1.2.3.4", "carol"))
	assert.False(t, g.locked(ctx, "carol"))
	assert.Error(t, g.recordFailure(ctx, "carol"))
}

package api

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// loginStore 是登录保护用到的 redis 命令子集。
type loginStore interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// loginGuard 实现按小时的登录限流与连续失败锁定。redis 不可用时放行。
type loginGuard struct {
	store      loginStore
	protection LoginProtection
	now        func() time.Time
}

func newLoginGuard(store loginStore, protection LoginProtection) *loginGuard {
	return &loginGuard{store: store, protection: protection, now: time.Now}
}

func rateKey(ip, identifier string, at time.Time) string {
	return "skillswipe:login:rate:" + ip + ":" + identifier + ":" + at.UTC().Format("2006010215")
}
func failKey(identifier string) string { return "skillswipe:login:fail:" + identifier }
func lockKey(identifier string) string { return "skillswipe:login:lock:" + identifier }

// overRate 记一次尝试，并判断该 IP+账号 本小时是否超限。
func (g *loginGuard) overRate(ctx context.Context, ip, identifier string) bool {
	if g.protection.RateLimitPerHour <= 0 {
		return false
	}
	count, err := incrWithTTL(ctx, g.store, rateKey(ip, identifier, g.now()), time.Hour)
	if err != nil {
		return false
	}
	return count > int64(g.protection.RateLimitPerHour)
}

func (g *loginGuard) locked(ctx context.Context, identifier string) bool {
	ttl, err := g.store.TTL(ctx, lockKey(identifier)).Result()
	return err == nil && ttl > 0
}

// recordFailure 累计失败次数，达到阈值时锁定账号 LockTTL。
func (g *loginGuard) recordFailure(ctx context.Context, identifier string) error {
	count, err := incrWithTTL(ctx, g.store, failKey(identifier), g.protection.LockTTL)
	if err != nil {
		return err
	}
	if g.protection.LockThreshold > 0 && count >= int64(g.protection.LockThreshold) {
		return g.store.Set(ctx, lockKey(identifier), "1", g.protection.LockTTL).Err()
	}
	return nil
}

// reset 在登录成功后清理失败计数。
func (g *loginGuard) reset(ctx context.Context, identifier string) {
	_ = g.store.Del(ctx, failKey(identifier)).Err()
}

func incrWithTTL(ctx context.Context, store loginStore, key string, ttl time.Duration) (int64, error) {
	count, err := store.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		_ = store.Expire(ctx, key, ttl).Err()
	}
	return count, nil
}

package auth

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// rateIncrScript atomically bumps a fixed-window counter, arming the TTL
// only when the key is created so the window never slides.
var rateIncrScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// RateLimiter is a fixed-window per-IP limiter backed by Redis.  Counters
// live under "<action>:rate:<ip>" with TTL equal to the window, so they
// clean themselves up.  Correctness relies on Redis atomics, not in-process
// locks.
//
// The limiter fails open: if Redis is unreachable, requests pass and the
// error is logged.  Losing throttling briefly is preferable to locking
// every caller out of auth.
type RateLimiter struct {
	rdb    *redis.Client
	max    int
	window time.Duration
}

// NewRateLimiter builds a limiter allowing max attempts per window.  A nil
// client disables limiting (fail open).
func NewRateLimiter(rdb *redis.Client, max int, window time.Duration) *RateLimiter {
	return &RateLimiter{rdb: rdb, max: max, window: window}
}

func rateKey(action, ip string) string { return action + ":rate:" + ip }

// Allow consumes one attempt for the action/IP pair and reports whether the
// caller is still inside the window's budget.
func (l *RateLimiter) Allow(ctx context.Context, action, ip string) bool {
	count, err := l.bump(ctx, action, ip)
	if err != nil {
		log.Printf("[RATELIMIT] redis error, failing open | action=%s ip=%s err=%v", action, ip, err)
		return true
	}
	return count <= int64(l.max)
}

// Penalize burns one extra attempt without deciding anything.  Failed
// credential checks call this so enumeration costs double.
func (l *RateLimiter) Penalize(ctx context.Context, action, ip string) {
	if _, err := l.bump(ctx, action, ip); err != nil {
		log.Printf("[RATELIMIT] penalize failed | action=%s ip=%s err=%v", action, ip, err)
	}
}

func (l *RateLimiter) bump(ctx context.Context, action, ip string) (int64, error) {
	if l == nil || l.rdb == nil {
		return 0, nil
	}
	seconds := int64(l.window / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	res, err := rateIncrScript.Run(ctx, l.rdb, []string{rateKey(action, ip)}, seconds).Result()
	if err != nil {
		return 0, err
	}
	count, ok := res.(int64)
	if !ok {
		return 0, nil
	}
	return count, nil
}

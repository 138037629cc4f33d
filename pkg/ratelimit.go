package pkg

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// windowIncr counts one request in the current window. The expiry is only set by
// the request that opens the window, so steady traffic cannot keep a key alive.
var windowIncr = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// DistributedLimiter guards the API with a local token bucket and, when a Redis
// client is given, a fixed-window counter shared by every replica.
type DistributedLimiter struct {
	local       *rate.Limiter
	redis       redis.Scripter
	key         string        // e.g: "product_api:requests"
	window      time.Duration // e.g: 1s
	windowLimit int64
	logger      *zap.Logger
}

// NewDistributedLimiter creates a limiter allowing globalRate requests per second.
// A zero rate disables limiting. A zero burst defaults to the rate.
func NewDistributedLimiter(redisClient *redis.Client, key string, globalRate, burst int, window time.Duration, logger *zap.Logger) *DistributedLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &DistributedLimiter{key: key, window: window, logger: logger}
	if globalRate <= 0 {
		return d
	}
	if burst <= 0 {
		burst = globalRate
	}
	if d.window <= 0 {
		d.window = time.Second
	}
	d.local = rate.NewLimiter(rate.Limit(globalRate), burst)
	d.windowLimit = windowLimit(globalRate, burst, d.window)
	if redisClient != nil {
		d.redis = redisClient
	}
	return d
}

// windowLimit is the number of requests one window admits across all replicas.
func windowLimit(globalRate, burst int, window time.Duration) int64 {
	limit := int64(math.Ceil(float64(globalRate) * window.Seconds()))
	if limit < int64(burst) {
		limit = int64(burst)
	}
	return limit
}

// Allow reports whether one more request may proceed. Redis failures fall back
// to the local bucket.
func (d *DistributedLimiter) Allow(ctx context.Context) bool {
	if d == nil || d.local == nil {
		return true
	}
	if !d.local.Allow() {
		return false
	}
	if d.redis == nil {
		return true
	}

	count, err := windowIncr.Run(ctx, d.redis, []string{d.key}, strconv.FormatInt(d.window.Milliseconds(), 10)).Int64()
	if err != nil {
		LoggerFromContext(ctx, d.logger).Error("redis rate limit error; falling back to local", zap.Error(err))
		return true
	}
	if count > d.windowLimit {
		LoggerFromContext(ctx, d.logger).Warn("global rate limit exceeded",
			zap.String("key", d.key), zap.Int64("count", count), zap.Int64("limit", d.windowLimit))
		return false
	}
	return true
}

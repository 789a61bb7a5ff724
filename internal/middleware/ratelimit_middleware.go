package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"

	"github.com/tripzi/tripzi-backend/internal/callable"
)

// RateLimitConfig configures RateLimiter.
type RateLimitConfig struct {
	Limit     int
	Window    time.Duration
	Block     time.Duration
	KeyPrefix string
}

// RateLimiter is a fixed-window limiter keyed by uid, or client IP for
// anonymous callers. Exceeding the limit blocks the key for cfg.Block.
// Redis errors let the request through.
func RateLimiter(rdb redis.UniversalClient, cfg RateLimitConfig, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		clientID := "ip:" + c.ClientIP()
		if uid := c.GetString(ContextUserID); uid != "" {
			clientID = "uid:" + uid
		}
		key := cfg.KeyPrefix + ":" + clientID
		blockKey := key + ":blocked"

		if blocked, err := rdb.Exists(ctx, blockKey).Result(); err == nil && blocked > 0 {
			ttl, _ := rdb.TTL(ctx, blockKey).Result()
			tooMany(c, ttl)
			return
		}

		// EXPIRE NX rides along with every hit so a counter never outlives its window.
		var incr *redis.IntCmd
		_, pipeErr := rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			incr = pipe.Incr(ctx, key)
			pipe.ExpireNX(ctx, key, cfg.Window)
			return nil
		})
		count, err := incr.Result()
		if err != nil {
			logger.Warn("rate limiter unavailable, failing open", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}
		if pipeErr != nil {
			logger.Warn("rate limit window not set", zap.String("key", key), zap.Error(pipeErr))
		}

		if count > int64(cfg.Limit) {
			if err := rdb.Set(ctx, blockKey, "1", cfg.Block).Err(); err != nil {
				logger.Warn("rate limit block not set", zap.String("key", blockKey), zap.Error(err))
			}
			logger.Warn("probe rate limit exceeded", zap.String("key", key), zap.Int64("count", count))
			tooMany(c, cfg.Block)
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(int64(cfg.Limit)-count, 10))
		c.Next()
	}
}

func tooMany(c *gin.Context, retryAfter time.Duration) {
	if retryAfter < time.Second {
		retryAfter = time.Second
	}
	c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
	callable.WriteStatus(c, codes.ResourceExhausted, fmt.Sprintf("Too many requests. Try again in %s.", retryAfter.Round(time.Second)))
}

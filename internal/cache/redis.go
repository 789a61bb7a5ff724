package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tripzi/tripzi-backend/internal/models"
)

const ownerKeyPrefix = "tripzi:owner:"

// RedisConfig contains options for NewRedisClient.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// NewRedisClient connects and pings Redis.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}
	return rdb, nil
}

// RedisOwnerCache is an OwnerCache shared across subscriptions and instances.
type RedisOwnerCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisOwnerCache stores owners as JSON with the given TTL.
func NewRedisOwnerCache(client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *RedisOwnerCache {
	return &RedisOwnerCache{client: client, ttl: ttl, logger: logger}
}

func (c *RedisOwnerCache) Get(ctx context.Context, ownerID string) (models.Owner, bool) {
	val, err := c.client.Get(ctx, ownerKeyPrefix+ownerID).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("owner cache read failed", zap.String("ownerId", ownerID), zap.Error(err))
		}
		return models.Owner{}, false
	}
	var owner models.Owner
	if err := json.Unmarshal([]byte(val), &owner); err != nil {
		c.logger.Warn("owner cache entry is corrupt", zap.String("ownerId", ownerID), zap.Error(err))
		return models.Owner{}, false
	}
	return owner, true
}

func (c *RedisOwnerCache) Add(ctx context.Context, owner models.Owner) {
	body, err := json.Marshal(owner)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, ownerKeyPrefix+owner.ID, body, c.ttl).Err(); err != nil {
		c.logger.Warn("owner cache write failed", zap.String("ownerId", owner.ID), zap.Error(err))
	}
}

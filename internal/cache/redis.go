package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sai-suraj143/Intelli-Prep/internal/models"
)

// RedisCache persists the current-user slot in Redis so it survives a
// backend restart.
type RedisCache struct {
	log *zap.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewRedisCache(addr string, ttl time.Duration, log *zap.Logger) (*RedisCache, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisCache{log: log, rdb: rdb, ttl: ttl}, nil
}

func (c *RedisCache) Save(ctx context.Context, user models.UserRecord) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, slotKey, raw, c.ttl).Err()
}

func (c *RedisCache) Load(ctx context.Context) (*models.UserRecord, error) {
	raw, err := c.rdb.Get(ctx, slotKey).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrNoActiveUser
	}
	if err != nil {
		return nil, err
	}
	var user models.UserRecord
	if err := json.Unmarshal(raw, &user); err != nil {
		// A corrupt slot is treated as absent; the store is the
		// source of truth.
		c.log.Warn("discarding unreadable session cache slot", zap.Error(err))
		return nil, ErrNoActiveUser
	}
	return &user, nil
}

func (c *RedisCache) Clear(ctx context.Context) error {
	return c.rdb.Del(ctx, slotKey).Err()
}

func (c *RedisCache) Close() error { return c.rdb.Close() }

package utils

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cppla/rsvblog/config"
)

var (
	redisClient *redis.Client
	redisOnce   sync.Once
)

// GetRedis returns a singleton Redis client based on loaded config.
// It returns nil when UseRedis(nil) disabled redis.
func GetRedis() *redis.Client {
	redisOnce.Do(func() {
		cfg := config.Get().Redis
		redisClient = redis.NewClient(&redis.Options{
			Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
			Password:     cfg.Password,
			DB:           cfg.DB,
			DialTimeout:  3 * time.Second,
			ReadTimeout:  2 * time.Second,
			WriteTimeout: 2 * time.Second,
		})
		// callers fall back to the database when redis is down, so a failed ping is only logged
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			Sugar.Warnf("redis ping failed: %v", err)
		}
	})
	return redisClient
}

// UseRedis replaces the shared client. Passing nil disables redis-backed features.
func UseRedis(c *redis.Client) {
	redisOnce.Do(func() {})
	redisClient = c
}

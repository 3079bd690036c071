package config

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// ConnectRedis establishes connection to Redis. It returns nil when Redis is
// not configured or unreachable; callers fall back to in-process locking.
func ConnectRedis(cfg *Config, logger *logrus.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		logger.Info("REDIS_ADDR not set, using in-process workflow locks")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		logger.WithError(err).Warn("Redis connection failed, using in-process workflow locks")
		client.Close()
		return nil
	}

	logger.Info("Connected to Redis")
	return client
}

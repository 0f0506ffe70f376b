package config

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// RDB is nil when REDIS_ADDR is not configured; callers degrade to
// database-level idempotency checks.
var RDB *redis.Client

func ConnectRedis() {
	if C.RedisAddr == "" {
		log.Info("REDIS_ADDR not set, webhook deduplication will rely on the database only")
		return
	}

	client := redis.NewClient(&redis.Options{
		Addr: C.RedisAddr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("Redis unreachable, continuing without event deduplication cache")
		return
	}

	RDB = client
	log.Info("Redis connected")
}

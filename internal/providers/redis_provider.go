package providers

import (
	"context"
	"fmt"
	"time"

	"cinnarito/internal/structures"

	"github.com/redis/go-redis/v9"
)

// NewRedisProvider connects and pings once so a bad address fails at startup.
func NewRedisProvider(conf *structures.Config, logger Logger) (redis.UniversalClient, func(), error) {
	dialTimeout := conf.Redis.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 5 * time.Second
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:        conf.Redis.Addr,
		Password:    conf.Redis.Password,
		DB:          conf.Redis.DB,
		DialTimeout: dialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}

	logger.Infof(TypeApp, "Connected to redis at %s (db %d)", conf.Redis.Addr, conf.Redis.DB)

	cleanup := func() {
		if err := rdb.Close(); err != nil {
			logger.Warnf(TypeApp, "Closing redis: %s", err)
		}
	}
	return rdb, cleanup, nil
}

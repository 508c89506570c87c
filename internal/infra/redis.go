package infra

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// NewRedis connects the client used for job queues and response caching.
// Fails fast: an unreachable Redis at startup is a deployment error.
func NewRedis(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return rdb, nil
}

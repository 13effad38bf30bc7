package infra

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// NewRedis creates a go-redis client and verifies connectivity. Redis
// holds the offline queue, its dead letter list, and the daily stats
// records, so a dead connection is a startup error.
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

package utils

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var rdb *redis.Client

// InitRedis connects to redis and pings it
func InitRedis(ctx context.Context, url, password string, db int) error {
	rdb = redis.NewClient(&redis.Options{
		Addr:     url,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return err
	}

	log.Info().Str("addr", url).Msg("redis connected")
	return nil
}

// GetRedis nil until InitRedis succeeded
func GetRedis() *redis.Client {
	return rdb
}

func CloseRedis() error {
	if rdb != nil {
		return rdb.Close()
	}
	return nil
}

package database

import (
	"context"
	"log"
	"net"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/viper"
)

// InitRedis initializes the Redis client used for event fan-out and
// closing-slip caching. Redis is optional: when it is unreachable the
// client is closed and nil is returned, and callers run without it.
func InitRedis() *redis.Client {
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", "6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	opts := &redis.Options{
		Addr:     net.JoinHostPort(viper.GetString("redis.host"), viper.GetString("redis.port")),
		Password: viper.GetString("redis.password"),
		DB:       viper.GetInt("redis.db"),
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("Redis unreachable at %s, continuing without Redis: %v", opts.Addr, err)
		rdb.Close()
		return nil
	}

	log.Printf("Redis connection established at %s", opts.Addr)
	return rdb
}

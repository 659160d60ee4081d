package utils

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/buddies-social/buddies/config"
)

var (
	redisClient *redis.Client
	redisMu     sync.Mutex
)

// InitRedis connects the process-wide Redis client. main calls it with values
// from config; tests point it at a miniredis address.
func InitRedis(addr, password string, db int) *redis.Client {
	redisMu.Lock()
	defer redisMu.Unlock()
	redisClient = redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	// Ping to validate; errors are tolerated so the in-memory fallbacks kick in.
	_ = redisClient.Ping(ctx).Err()
	return redisClient
}

// InitRedisFromConfig initializes the client from loaded configuration.
func InitRedisFromConfig(cfg config.AppConfig) *redis.Client {
	return InitRedis(net.JoinHostPort(cfg.RedisHost, strconv.Itoa(cfg.RedisPort)), cfg.RedisPassword, cfg.RedisDB)
}

// GetRedis returns the initialized client, or nil when Redis is not
// configured. Callers treat nil as "caching disabled".
func GetRedis() *redis.Client {
	redisMu.Lock()
	defer redisMu.Unlock()
	return redisClient
}

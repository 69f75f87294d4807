// Package cache provides an optional Redis cache for read-heavy content.
// When no Redis URL is configured every helper is a no-op, so callers never
// branch on availability.
package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

var Client *redis.Client

// Init connects the package client. An empty or invalid URL leaves the
// client nil and the cache disabled.
func Init(url string) {
	if url == "" {
		return
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("Redis disabled: invalid REDIS_URL %q: %v", url, err)
		return
	}
	Client = redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := Client.Ping(ctx).Err(); err != nil {
		log.Printf("Redis disabled: ping failed: %v", err)
		Client = nil
		return
	}
	log.Println("Connected to Redis successfully")
}

// GetJSON reads key into dest. Returns (true, nil) on a hit, (false, nil)
// on a miss or when the cache is disabled.
func GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if Client == nil {
		return false, nil
	}
	s, err := Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(s), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and stores it under key with a TTL. Best-effort.
func SetJSON(ctx context.Context, key string, v any, ttl time.Duration) {
	if Client == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := Client.Set(ctx, key, b, ttl).Err(); err != nil {
		log.Printf("Redis set %s failed: %v", key, err)
	}
}

// Invalidate drops the given keys. Best-effort.
func Invalidate(ctx context.Context, keys ...string) {
	if Client == nil || len(keys) == 0 {
		return
	}
	if err := Client.Del(ctx, keys...).Err(); err != nil {
		log.Printf("Redis del failed: %v", err)
	}
}

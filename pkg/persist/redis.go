package persist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisOpTimeout = 3 * time.Second

// RedisAdapter stores each collection as a single key in Redis. Collections
// never expire; the store is the durable copy, not a cache.
type RedisAdapter struct {
	client *redis.Client
	prefix string
}

// NewRedisAdapter builds a Redis-backed adapter.
func NewRedisAdapter(addr, password, prefix string) (*RedisAdapter, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("persist: redis addr is required")
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "alameda:collections"
	}
	return &RedisAdapter{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		prefix: prefix,
	}, nil
}

// Load reads the collection key.
func (a *RedisAdapter) Load(ctx context.Context, collection string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	data, err := a.client.Get(ctx, a.key(collection)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load collection %s: %w", collection, err)
	}
	return data, true, nil
}

// Save overwrites the collection key.
func (a *RedisAdapter) Save(ctx context.Context, collection string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	if err := a.client.Set(ctx, a.key(collection), data, 0).Err(); err != nil {
		return fmt.Errorf("save collection %s: %w", collection, err)
	}
	return nil
}

func (a *RedisAdapter) key(collection string) string {
	return a.prefix + ":" + collection
}

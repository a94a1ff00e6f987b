package annotate

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clinprec/svi/internal/domain"
)

// Cache wraps a Redis client with TTL'd storage of FunctionalAnnotation
// results, keyed by the variant's identifying fields.
type Cache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewCache connects to redisURL and returns a Cache with the given default
// TTL and pool size.
func NewCache(redisURL string, ttl time.Duration, poolSize int) (*Cache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.PoolSize = poolSize

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &Cache{redis: client, ttl: ttl}, nil
}

type cachedAnnotation struct {
	Data      *domain.FunctionalAnnotation `json:"data"`
	CachedAt  time.Time                    `json:"cached_at"`
	ExpiresAt time.Time                    `json:"expires_at"`
}

// Get returns the cached annotation for v, or found=false on a miss or a
// corrupted/expired entry (which it also evicts).
func (c *Cache) Get(ctx context.Context, v *domain.Variant) (*domain.FunctionalAnnotation, bool, error) {
	key := c.key(v)

	val, err := c.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get annotation cache: %w", err)
	}

	var cached cachedAnnotation
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		c.redis.Del(ctx, key)
		return nil, false, nil
	}
	if time.Now().After(cached.ExpiresAt) {
		c.redis.Del(ctx, key)
		return nil, false, nil
	}
	return cached.Data, true, nil
}

// Set caches fa for v under the cache's configured default TTL.
func (c *Cache) Set(ctx context.Context, v *domain.Variant, fa *domain.FunctionalAnnotation) error {
	key := c.key(v)
	cached := cachedAnnotation{Data: fa, CachedAt: time.Now(), ExpiresAt: time.Now().Add(c.ttl)}

	payload, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("marshal annotation cache entry: %w", err)
	}
	return c.redis.Set(ctx, key, payload, c.ttl).Err()
}

func (c *Cache) key(v *domain.Variant) string {
	data := fmt.Sprintf("%s:%s:%d:%s:%s", v.Assembly, v.Chromosome, v.Position, v.Reference, v.Alternate)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("annotation:variant:%x", hash[:8])
}

// Close releases the underlying Redis connection.
func (c *Cache) Close() error { return c.redis.Close() }

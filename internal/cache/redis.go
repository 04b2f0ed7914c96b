package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"marketplace-service/internal/entity"
)

const idempotentKeyTTL = 24 * time.Hour

// ProductCache keeps serialized product details under product:<slug>.
type ProductCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewProductCache(rdb *redis.Client, ttl time.Duration) *ProductCache {
	return &ProductCache{rdb: rdb, ttl: ttl}
}

func productKey(slug string) string {
	return fmt.Sprintf("product:%s", slug)
}

// Get returns (nil, false, nil) on a cache miss.
func (c *ProductCache) Get(ctx context.Context, slug string) (*entity.Product, bool, error) {
	val, err := c.rdb.Get(ctx, productKey(slug)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var product entity.Product
	if err := json.Unmarshal([]byte(val), &product); err != nil {
		return nil, false, err
	}
	return &product, true, nil
}

func (c *ProductCache) Set(ctx context.Context, product *entity.Product) error {
	data, err := json.Marshal(product)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, productKey(product.Slug), data, c.ttl).Err()
}

func (c *ProductCache) Delete(ctx context.Context, slugs ...string) error {
	if len(slugs) == 0 {
		return nil
	}
	keys := make([]string, len(slugs))
	for i, slug := range slugs {
		keys[i] = productKey(slug)
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// IdempotencyStore remembers checkout keys for 24 hours.
type IdempotencyStore struct {
	rdb *redis.Client
}

func NewIdempotencyStore(rdb *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{rdb: rdb}
}

// Claim reports true the first time a key is seen.
func (s *IdempotencyStore) Claim(ctx context.Context, key string) (bool, error) {
	redisKey := fmt.Sprintf("idempotent-key:%s", key)
	return s.rdb.SetNX(ctx, redisKey, "exists", idempotentKeyTTL).Result()
}

// Release forgets a key so a failed checkout can be retried with it.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, fmt.Sprintf("idempotent-key:%s", key)).Err()
}

// TokenBlacklist holds the ids of rotated refresh tokens until they expire.
type TokenBlacklist struct {
	rdb *redis.Client
}

func NewTokenBlacklist(rdb *redis.Client) *TokenBlacklist {
	return &TokenBlacklist{rdb: rdb}
}

func blacklistKey(jti string) string {
	return fmt.Sprintf("token-blacklist:%s", jti)
}

// Claim blacklists jti and reports whether this call was the one that did
// it. A false result means the token was already rotated.
func (b *TokenBlacklist) Claim(ctx context.Context, jti string, ttl time.Duration) (bool, error) {
	if ttl < time.Second {
		ttl = time.Second
	}
	return b.rdb.SetNX(ctx, blacklistKey(jti), "1", ttl).Result()
}

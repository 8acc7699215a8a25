package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sashvara/storefront_api/internal/models"
)

// cachedProduct is the JSON form stored in Redis. Extra is kept so price
// resolution sees the same legacy fields as a fresh read.
type cachedProduct struct {
	Product models.Product `json:"product"`
	Extra   map[string]any `json:"extra,omitempty"`
}

// ProductCache caches products resolved by identifier.
type ProductCache struct {
	redis *RedisClient
	ttl   time.Duration
}

// NewProductCache creates a new ProductCache. A zero ttl disables caching.
func NewProductCache(redis *RedisClient, ttl time.Duration) *ProductCache {
	return &ProductCache{redis: redis, ttl: ttl}
}

// keyByIdentifier returns the Redis key for a lookup identifier.
func (c *ProductCache) keyByIdentifier(identifier string) string {
	return fmt.Sprintf("product:ident:%s", identifier)
}

// Get returns the cached product for identifier, or ErrMiss.
func (c *ProductCache) Get(ctx context.Context, identifier string) (*models.Product, error) {
	if c.ttl <= 0 {
		return nil, ErrMiss
	}
	raw, err := c.redis.Get(ctx, c.keyByIdentifier(identifier))
	if err != nil {
		return nil, err
	}
	var cp cachedProduct
	if err := json.Unmarshal([]byte(raw), &cp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached product: %w", err)
	}
	p := cp.Product
	p.Extra = cp.Extra
	return &p, nil
}

// Set stores p under the identifier it was requested by.
func (c *ProductCache) Set(ctx context.Context, identifier string, p *models.Product) error {
	if c.ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(cachedProduct{Product: *p, Extra: p.Extra})
	if err != nil {
		return fmt.Errorf("failed to marshal product: %w", err)
	}
	return c.redis.Set(ctx, c.keyByIdentifier(identifier), string(data), c.ttl)
}

// Invalidate drops every identifier the product may have been cached under.
func (c *ProductCache) Invalidate(ctx context.Context, products ...*models.Product) error {
	var keys []string
	for _, p := range products {
		if p == nil {
			continue
		}
		for _, id := range p.Identifiers() {
			keys = append(keys, c.keyByIdentifier(id))
		}
	}
	return c.redis.Delete(ctx, keys...)
}

// IsMiss reports whether err is a cache miss.
func IsMiss(err error) bool {
	return errors.Is(err, ErrMiss)
}

// Package cache memoizes computed product plans. The engine is deterministic
// and side-effect free, so caching by input hash is always correct; this
// package only has to build that hash faithfully.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/novamart/demand-planner/internal/config"
	"github.com/novamart/demand-planner/internal/domain"
)

const planKeyPrefix = "demand-planner:plan:"

// PlanCache stores computed plans keyed by an input hash.
type PlanCache interface {
	Get(ctx context.Context, key string) (*domain.ProductPlan, bool, error)
	Set(ctx context.Context, key string, plan domain.ProductPlan) error
}

// PlanKey derives the cache key for one computation: a SHA-256 over the
// canonical request encoding and a fingerprint of the product's sales rows.
// Identical inputs always map to the same key; any change to the history or
// the parameters changes it.
func PlanKey(request any, records []domain.SalesRecord, productID string) string {
	h := sha256.New()

	if encoded, err := json.Marshal(request); err == nil {
		h.Write(encoded)
	}

	for _, r := range records {
		if r.ProductID != productID {
			continue
		}
		fmt.Fprintf(h, "%s|%d|%g\n", r.Date.UTC().Format(time.RFC3339), r.Quantity, r.UnitPrice)
	}

	return planKeyPrefix + hex.EncodeToString(h.Sum(nil))
}

// NewPlanCache returns a redis-backed cache when enabled in cfg, a noop cache
// otherwise. A redis connection failure degrades to the noop cache rather
// than failing startup.
func NewPlanCache(cfg config.CacheConfig) (PlanCache, error) {
	if !cfg.Enabled {
		return NewNoopPlanCache(), nil
	}
	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return NewNoopPlanCache(), err
	}
	return &redisPlanCache{client: client, ttl: ttl}, nil
}

type redisPlanCache struct {
	client *redis.Client
	ttl    time.Duration
}

func (c *redisPlanCache) Get(ctx context.Context, key string) (*domain.ProductPlan, bool, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("plan cache get failed: %w", err)
	}

	var plan domain.ProductPlan
	if err := json.Unmarshal(payload, &plan); err != nil {
		return nil, false, fmt.Errorf("plan cache decode failed: %w", err)
	}
	return &plan, true, nil
}

func (c *redisPlanCache) Set(ctx context.Context, key string, plan domain.ProductPlan) error {
	payload, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("plan cache encode failed: %w", err)
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("plan cache set failed: %w", err)
	}
	return nil
}

// NewNoopPlanCache returns a cache that stores nothing.
func NewNoopPlanCache() PlanCache {
	return noopPlanCache{}
}

type noopPlanCache struct{}

func (noopPlanCache) Get(context.Context, string) (*domain.ProductPlan, bool, error) {
	return nil, false, nil
}

func (noopPlanCache) Set(context.Context, string, domain.ProductPlan) error {
	return nil
}

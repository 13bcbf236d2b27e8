package ml

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	predictCachePrefix = "ml:predict:"
	predictCacheTTL    = time.Hour
)

// PredictionCache memoizes predictions in redis keyed by the feature vector.
// All failures are swallowed: the cache losing a round never blocks a
// prediction.
type PredictionCache struct {
	rdb *redis.Client
}

func NewPredictionCache(rdb *redis.Client) *PredictionCache {
	if rdb == nil {
		return nil
	}
	return &PredictionCache{rdb: rdb}
}

func cacheKey(v []float64) string {
	sum := sha1.Sum([]byte(fmt.Sprint(v)))
	return fmt.Sprintf("%s%x", predictCachePrefix, sum)
}

func (c *PredictionCache) Get(ctx context.Context, v []float64) (*Prediction, bool) {
	if c == nil {
		return nil, false
	}
	b, err := c.rdb.Get(ctx, cacheKey(v)).Bytes()
	if err != nil {
		return nil, false
	}
	var p Prediction
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, false
	}
	return &p, true
}

func (c *PredictionCache) Set(ctx context.Context, v []float64, p Prediction) {
	if c == nil {
		return
	}
	b, err := json.Marshal(p)
	if err != nil {
		return
	}
	c.rdb.Set(ctx, cacheKey(v), b, predictCacheTTL)
}

// Invalidate drops all cached predictions. Called after training so stale
// prices don't outlive the model that produced them.
func (c *PredictionCache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	iter := c.rdb.Scan(ctx, 0, predictCachePrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		c.rdb.Del(ctx, iter.Val())
	}
}

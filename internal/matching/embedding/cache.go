package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"automatch-workers/internal/common/logger"
)

// CachedProvider memoizes provider results in Redis keyed by sha256(model + text). Cache
// failures fall through to the provider.
type CachedProvider struct {
	inner  Provider
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedProvider(inner Provider, rdb *redis.Client, ttl time.Duration, log logger.Logger) Provider {
	if rdb == nil || ttl <= 0 {
		return inner
	}
	return &CachedProvider{
		inner:  inner,
		redis:  rdb,
		ttl:    ttl,
		logger: logger.Component(log, "embedding-cache"),
	}
}

func CacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(model + text))
	return "embedding:" + hex.EncodeToString(sum[:])
}

func (c *CachedProvider) Model() string {
	return c.inner.Model()
}

func (c *CachedProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	key := CacheKey(c.inner.Model(), text)

	if val, err := c.redis.Get(ctx, key).Result(); err == nil {
		var vec []float32
		if err := json.Unmarshal([]byte(val), &vec); err == nil && len(vec) > 0 {
			return vec, nil
		}
	} else if err != redis.Nil {
		c.logger.Warn("embedding cache read failed", map[string]interface{}{"error": err.Error()})
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(vec); err == nil {
		if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("embedding cache write failed", map[string]interface{}{"error": err.Error()})
		}
	}
	return vec, nil
}

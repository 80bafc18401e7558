package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shopcomplex/recommendation-service/internal/domain"
)

type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Cache{client: client, ttl: ttl}
}

// UserRecsKey keys a user's personalized recommendations. The key carries
// everything that shapes the result so filtered variants never collide.
func UserRecsKey(userID string, limit int, filters ...string) string {
	key := fmt.Sprintf("rec:user:%s:limit:%d", userID, limit)
	if len(filters) > 0 {
		key += ":" + strings.Join(filters, ":")
	}
	return key
}

func SimilarKey(productID string, limit int, method string) string {
	return fmt.Sprintf("rec:similar:%s:limit:%d:method:%s", productID, limit, method)
}

func TrendingKey(windowDays, limit int, category string) string {
	return fmt.Sprintf("rec:trending:days:%d:limit:%d:cat:%s", windowDays, limit, category)
}

// Get recommendations from cache
func (c *Cache) Get(ctx context.Context, key string) ([]domain.ScoredProduct, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get recommendations from cache: %w", err)
	}

	var recs []domain.ScoredProduct
	if err := json.Unmarshal([]byte(val), &recs); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal recommendations %s: %w", key, err)
	}

	return recs, true, nil
}

// Store recommendations in cache
func (c *Cache) Set(ctx context.Context, key string, recs []domain.ScoredProduct) error {
	val, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("failed to marshal recommendations: %w", err)
	}

	if err := c.client.Set(ctx, key, val, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set recommendations in cache: %w", err)
	}

	return nil
}

// Clear user cache: used when the user's interaction log changes
func (c *Cache) ClearUserCache(ctx context.Context, userID string) error {
	return c.deleteByPattern(ctx, fmt.Sprintf("rec:user:%s:limit:*", userID))
}

// Flush every recommendation key. Used after a model refit, when all
// cached results are stale at once.
func (c *Cache) Flush(ctx context.Context) error {
	return c.deleteByPattern(ctx, "rec:*")
}

func (c *Cache) deleteByPattern(ctx context.Context, pattern string) error {
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("cache delete %s: %w", iter.Val(), err)
		}
	}
	return iter.Err()
}

// Ping connectivity
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

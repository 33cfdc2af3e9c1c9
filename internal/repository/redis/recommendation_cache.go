package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dovra-dev/atelier-finder/domain"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// RecommendationCache stores full recommendation responses so the daily
// precompute job can warm popular combinations. The key carries activity,
// requested datetime, and zone; zoneless requests use "all".
type RecommendationCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRecommendationCache(client *redis.Client, ttl time.Duration) *RecommendationCache {
	return &RecommendationCache{
		client: client,
		ttl:    ttl,
	}
}

// Key builds the cache key for one request shape.
func (c *RecommendationCache) Key(activity string, dateTime time.Time, zone string) string {
	if zone == "" {
		zone = "all"
	}
	return fmt.Sprintf("reco:%s_%s_%s",
		strings.ToLower(activity),
		dateTime.Format("2006-01-02T15:04"),
		strings.ToLower(zone),
	)
}

func (c *RecommendationCache) Get(ctx context.Context, key string) (*domain.RecommendationResponse, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cached recommendation: %w", err)
	}

	var resp domain.RecommendationResponse
	if err := json.Unmarshal([]byte(val), &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached recommendation: %w", err)
	}

	return &resp, nil
}

func (c *RecommendationCache) Set(ctx context.Context, key string, resp *domain.RecommendationResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to marshal recommendation: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store recommendation in Redis: %w", err)
	}

	return nil
}

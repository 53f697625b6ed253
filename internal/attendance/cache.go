package attendance

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"guestlist/internal/reconcile"
)

const summaryKeyPrefix = "guestlist:summary:"

// SummaryCache keeps per-event summaries in Redis so summaryOnly reads skip
// the full reconciliation. Best-effort: callers treat every error as a miss.
type SummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSummaryCache creates a cache with the given TTL.
func NewSummaryCache(client *redis.Client, ttl time.Duration) *SummaryCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &SummaryCache{client: client, ttl: ttl}
}

// Get returns the cached summary, or nil on a miss.
func (c *SummaryCache) Get(ctx context.Context, eventID string) (*reconcile.Summary, error) {
	raw, err := c.client.Get(ctx, summaryKeyPrefix+eventID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s reconcile.Summary
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Set stores a summary with the cache TTL.
func (c *SummaryCache) Set(ctx context.Context, eventID string, s reconcile.Summary) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, summaryKeyPrefix+eventID, raw, c.ttl).Err()
}

// Invalidate drops the cached summary after a write.
func (c *SummaryCache) Invalidate(ctx context.Context, eventID string) error {
	return c.client.Del(ctx, summaryKeyPrefix+eventID).Err()
}

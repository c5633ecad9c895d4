package availability

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carebridge/patient-scheduler/internal/calendar"
	"github.com/carebridge/patient-scheduler/pkg/logging"
)

// Cache keeps recently computed availability listings in Redis for a short
// TTL. Availability tolerates slight staleness, so a cache miss or Redis
// outage just falls through to a live computation.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewCache creates a Redis-backed availability cache.
func NewCache(client *redis.Client, ttl time.Duration, logger *logging.Logger) *Cache {
	if client == nil {
		panic("availability: redis client required")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Cache{client: client, ttl: ttl, logger: logger.Component("availability-cache")}
}

// Get returns the cached listing for the query, if present.
func (c *Cache) Get(ctx context.Context, key string) ([]calendar.Slot, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("availability cache read failed", "error", err)
		}
		return nil, false
	}
	var slots []calendar.Slot
	if err := json.Unmarshal(data, &slots); err != nil {
		c.logger.Warn("availability cache entry corrupt", "error", err, "key", key)
		return nil, false
	}
	return slots, true
}

// Set stores the listing. Failures are logged and otherwise ignored.
func (c *Cache) Set(ctx context.Context, key string, slots []calendar.Slot) {
	if c == nil {
		return
	}
	data, err := json.Marshal(slots)
	if err != nil {
		c.logger.Warn("availability cache marshal failed", "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("availability cache write failed", "error", err)
	}
}

func cacheKey(providerIDs []string, start time.Time, days int, mode calendar.VisitMode) string {
	return fmt.Sprintf("availability:%s:%s:%d:%s",
		strings.Join(providerIDs, ","),
		start.UTC().Format("2006-01-02"),
		days,
		mode,
	)
}

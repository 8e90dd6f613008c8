package messaging

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ProcessedTracker remembers which provider events were already handled so
// webhook retries do not replay a conversation turn.
type ProcessedTracker interface {
	// MarkProcessed records the event and reports whether this was the
	// first time it was seen.
	MarkProcessed(ctx context.Context, provider, eventID string) (bool, error)
}

// RedisDedupe tracks processed events in Redis with a TTL.
type RedisDedupe struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDedupe creates a tracker on the given client. A zero ttl
// defaults to 24 hours.
func NewRedisDedupe(client *redis.Client, ttl time.Duration) *RedisDedupe {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisDedupe{client: client, ttl: ttl}
}

func (d *RedisDedupe) MarkProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	key := fmt.Sprintf("bizflow:webhook:%s:%s", provider, eventID)
	first, err := d.client.SetNX(ctx, key, "1", d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("messaging: mark processed: %w", err)
	}
	return first, nil
}

// MemoryDedupe is the in-process fallback used when Redis is not
// configured. Entries are evicted after the TTL on a best-effort sweep.
type MemoryDedupe struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
}

func NewMemoryDedupe(ttl time.Duration) *MemoryDedupe {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemoryDedupe{seen: make(map[string]time.Time), ttl: ttl}
}

func (d *MemoryDedupe) MarkProcessed(_ context.Context, provider, eventID string) (bool, error) {
	key := provider + ":" + eventID
	now := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	cutoff := now.Add(-d.ttl)
	for k, at := range d.seen {
		if at.Before(cutoff) {
			delete(d.seen, k)
		}
	}
	if _, ok := d.seen[key]; ok {
		return false, nil
	}
	d.seen[key] = now
	return true, nil
}

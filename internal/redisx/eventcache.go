package redisx

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// EventCache: probe duplicate murah di depan dedup ledger.
type EventCache struct{ RDB *redis.Client }

func (c *EventCache) Seen(ctx context.Context, externalEventID string) (bool, error) {
	return Exists(ctx, c.RDB, fmt.Sprintf(KeyDedupWebhook, externalEventID))
}

func (c *EventCache) Mark(ctx context.Context, externalEventID string) error {
	return c.RDB.Set(ctx, fmt.Sprintf(KeyDedupWebhook, externalEventID), "1", TTLDedup).Err()
}

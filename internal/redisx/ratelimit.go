package redisx

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Limiter: bounded-rate admission control keyed by actor, rolling window.
// Satu INCR atomik (bukan read-modify-write dua langkah), jadi aman untuk
// increment concurrent dan survive restart / horizontal scaling.
type Limiter struct {
	RDB   *redis.Client
	Scope string // e.g. "dispute"
	Limit int64
}

func (l *Limiter) Allow(ctx context.Context, actorID string) (bool, error) {
	key := fmt.Sprintf(KeyRate, l.Scope, actorID)
	// INCR + EXPIRE NX satu pipeline: window ke-set bareng increment pertama,
	// dan key lama yang kehilangan TTL dapat window lagi di hit berikutnya.
	pipe := l.RDB.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, TTLRateWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return incr.Val() <= l.Limit, nil
}

package redisx

import "time"

const (
	// Fast-path dedup webhook: dedup:webhook:{external_event_id} -> "1".
	// DB ledger tetap source of truth; ini cuma shortcut.
	KeyDedupWebhook = "dedup:webhook:%s"

	// Rate limit per actor: rate:{scope}:{actor_id} -> counter (INCR + EXPIRE).
	KeyRate = "rate:%s:%s"

	// Dedup notifikasi consumer: dedup:notifier:{event_id}
	KeyDedupNotifier = "dedup:notifier:%s"
)

var (
	TTLDedup      = 48 * time.Hour
	TTLRateWindow = 24 * time.Hour
)

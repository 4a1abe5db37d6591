package market

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EventRepo: dedup ledger. Insert terjadi SETELAH business write commit,
// sebelum ack ke provider; crash di antaranya aman karena handler idempoten.
type EventRepo struct{ DB *pgxpool.Pool }

func (r *EventRepo) Seen(ctx context.Context, externalEventID string) (bool, error) {
	var n int
	err := r.DB.QueryRow(ctx,
		`SELECT COUNT(*) FROM webhook_events WHERE external_event_id=$1`, externalEventID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *EventRepo) Record(ctx context.Context, externalEventID, eventType string) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO webhook_events(external_event_id, event_type, status)
		VALUES ($1, $2, 'PROCESSED')
		ON CONFLICT (external_event_id) DO NOTHING`, externalEventID, eventType)
	return err
}

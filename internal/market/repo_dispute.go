package market

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DisputeRepo struct{ DB *pgxpool.Pool }

// Resolution values untuk ResolveDispute.
const (
	ResolutionRefundBuyer   = "refund_buyer"
	ResolutionReleaseSeller = "release_seller"
	ResolutionCancelled     = "cancelled"
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// OpenTx: dispute OPEN + Order -> DISPUTED dalam satu tx.
// Partial unique index (order_id WHERE status OPEN/IN_REVIEW) menjaga
// "paling banyak satu dispute aktif per order" di bawah concurrency.
func (r *DisputeRepo) OpenTx(ctx context.Context, d *Dispute) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := scanOrder(tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1 FOR UPDATE`, d.OrderID))
	if err != nil {
		return err
	}
	if o.BuyerID != d.BuyerID {
		return ErrForbidden
	}
	if o.Status == StatusDisputed {
		return ErrDisputeExists
	}
	if !Disputable(o.Status) {
		return ErrInvalidState
	}

	d.ID = uuid.NewString()
	d.Status = DisputeOpen
	err = tx.QueryRow(ctx, `
		INSERT INTO disputes(id, order_id, buyer_id, reason, description, status)
		VALUES ($1,$2,$3,$4,$5,'OPEN')
		RETURNING created_at`,
		d.ID, d.OrderID, d.BuyerID, d.Reason, d.Description).Scan(&d.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDisputeExists
	}
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `UPDATE orders SET status='DISPUTED', updated_at=now() WHERE id=$1`, d.OrderID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Resolve: administrative close. Efek ke order per resolution:
// refund_buyer -> REFUNDED (order + ledger), release_seller -> COMPLETED
// (order + ledger; uang sudah di-capture provider), cancelled -> balik ke
// PAID. Satu tx.
func (r *DisputeRepo) Resolve(ctx context.Context, disputeID, resolution string) (*Dispute, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	d := &Dispute{ID: disputeID}
	var st string
	err = tx.QueryRow(ctx, `
		SELECT order_id, buyer_id, reason, description, status, created_at
		FROM disputes WHERE id=$1 FOR UPDATE`, disputeID).
		Scan(&d.OrderID, &d.BuyerID, &d.Reason, &d.Description, &st, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDisputeNotFound
	}
	if err != nil {
		return nil, err
	}
	d.Status = DisputeStatus(st)
	if d.Status != DisputeOpen && d.Status != DisputeInReview {
		return nil, ErrInvalidState
	}

	o, err := scanOrder(tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1 FOR UPDATE`, d.OrderID))
	if err != nil {
		return nil, err
	}

	next := DisputeResolved
	var orderNext OrderStatus
	var txNext TxStatus
	switch resolution {
	case ResolutionRefundBuyer:
		orderNext, txNext = StatusRefunded, TxRefunded
	case ResolutionReleaseSeller:
		// webhook settlement skip selama DISPUTED dan event id-nya sudah
		// tercatat, jadi ledger harus diselesaikan di sini
		orderNext, txNext = StatusCompleted, TxCompleted
	case ResolutionCancelled:
		next, orderNext = DisputeCancelled, StatusPaid
	default:
		return nil, fmt.Errorf("%w: unknown resolution %q", ErrValidation, resolution)
	}

	err = tx.QueryRow(ctx, `
		UPDATE disputes SET status=$2, resolution=$3, resolved_at=now() WHERE id=$1
		RETURNING resolved_at`, disputeID, string(next), resolution).Scan(&d.ResolvedAt)
	if err != nil {
		return nil, err
	}
	d.Status = next
	d.Resolution = resolution

	// order bisa saja sudah digeser provider (mis. refund webhook); jangan timpa
	if o.Status == StatusDisputed {
		if _, err := tx.Exec(ctx, `UPDATE orders SET status=$2, updated_at=now() WHERE id=$1`, o.ID, string(orderNext)); err != nil {
			return nil, err
		}
		if txNext != "" {
			if _, err := tx.Exec(ctx, `UPDATE transactions SET status=$2, updated_at=now() WHERE order_id=$1`, o.ID, string(txNext)); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

type DisputeFilter struct {
	BuyerID string
	Status  string
	Page    int
	Limit   int
}

func (r *DisputeRepo) List(ctx context.Context, f DisputeFilter) ([]Dispute, int, error) {
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Page <= 0 {
		f.Page = 1
	}

	where := `WHERE ($1 = '' OR buyer_id = $1) AND ($2 = '' OR status = $2)`
	var total int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM disputes `+where, f.BuyerID, f.Status).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.DB.Query(ctx, `
		SELECT id, order_id, buyer_id, reason, description, status,
		       COALESCE(resolution,''), created_at, resolved_at
		FROM disputes `+where+`
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`, f.BuyerID, f.Status, f.Limit, (f.Page-1)*f.Limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Dispute
	for rows.Next() {
		var d Dispute
		var st string
		if err := rows.Scan(&d.ID, &d.OrderID, &d.BuyerID, &d.Reason, &d.Description,
			&st, &d.Resolution, &d.CreatedAt, &d.ResolvedAt); err != nil {
			return nil, 0, err
		}
		d.Status = DisputeStatus(st)
		out = append(out, d)
	}
	return out, total, rows.Err()
}

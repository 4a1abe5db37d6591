package market

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// SettleResult: hasil konvergensi handler webhook. "Sudah di target state"
// bukan error; provider boleh kirim event yang sama berkali-kali.
type SettleResult struct {
	Order      *Order
	Applied    bool // ada write yang terjadi di call ini
	Duplicate  bool // target state sudah tercapai sebelumnya
	Skipped    bool // transisi dilewati (mis. order DISPUTED), tetap di-ack
	BecamePaid bool // order pindah ke PAID di call ini -> trigger notifikasi
}

// lockOrder: resolve order by external_payment_ref, fallback ke order id dari
// metadata (event types untuk order yang sama bisa datang out of order).
func lockOrder(ctx context.Context, tx pgx.Tx, paymentRef, orderIDHint string) (*Order, error) {
	if paymentRef != "" {
		o, err := scanOrder(tx.QueryRow(ctx,
			`SELECT `+orderColumns+` FROM orders WHERE external_payment_ref=$1 FOR UPDATE`, paymentRef))
		if err == nil {
			return o, nil
		}
		if !errors.Is(err, ErrOrderNotFound) {
			return nil, err
		}
	}
	if orderIDHint == "" {
		return nil, ErrOrderNotFound
	}
	return scanOrder(tx.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id=$1 FOR UPDATE`, orderIDHint))
}

// setPaymentRef: ref sekali di-set tidak boleh ditimpa dengan nilai lain.
func setPaymentRef(ctx context.Context, tx pgx.Tx, o *Order, ref string) error {
	if ref == "" || o.PaymentRef == ref {
		return nil
	}
	if o.PaymentRef != "" {
		return ErrPaymentRefMismatch
	}
	if _, err := tx.Exec(ctx, `UPDATE orders SET external_payment_ref=$2, updated_at=now() WHERE id=$1`, o.ID, ref); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE transactions SET external_payment_ref=$2, updated_at=now() WHERE order_id=$1`, o.ID, ref); err != nil {
		return err
	}
	o.PaymentRef = ref
	return nil
}

// MarkPaidByOrderID: handler checkout.session.completed.
// PENDING -> PAID + paid_at + external_payment_ref. Sudah paid-or-later = duplicate.
func (r *Repo) MarkPaidByOrderID(ctx context.Context, orderID, paymentRef string) (SettleResult, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return SettleResult{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := scanOrder(tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1 FOR UPDATE`, orderID))
	if err != nil {
		return SettleResult{}, err
	}

	res := SettleResult{Order: o}
	switch {
	case o.Status == StatusDisputed:
		res.Skipped = true
		return res, nil
	case IsPaidOrLater(o.Status):
		// event ganda / event lain sudah set PAID duluan
		if err := setPaymentRef(ctx, tx, o, paymentRef); err != nil {
			return SettleResult{}, err
		}
		res.Duplicate = true
		if err := tx.Commit(ctx); err != nil {
			return SettleResult{}, err
		}
		return res, nil
	case o.Status != StatusPending:
		// CANCELLED/REFUNDED: event telat, jangan hidupkan lagi
		res.Skipped = true
		return res, nil
	}

	if err := setPaymentRef(ctx, tx, o, paymentRef); err != nil {
		return SettleResult{}, err
	}
	err = tx.QueryRow(ctx, `
		UPDATE orders SET status='PAID', paid_at=now(), updated_at=now()
		WHERE id=$1 RETURNING paid_at, updated_at`, o.ID).Scan(&o.PaidAt, &o.UpdatedAt)
	if err != nil {
		return SettleResult{}, err
	}
	o.Status = StatusPaid

	if err := tx.Commit(ctx); err != nil {
		return SettleResult{}, err
	}
	res.Applied = true
	res.BecamePaid = true
	return res, nil
}

// CompletePaymentByRef: handler payment_intent.succeeded.
// Transaction PENDING -> COMPLETED, plus Order -> PAID kalau belum; satu tx.
func (r *Repo) CompletePaymentByRef(ctx context.Context, paymentRef, orderIDHint string) (SettleResult, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return SettleResult{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := lockOrder(ctx, tx, paymentRef, orderIDHint)
	if err != nil {
		return SettleResult{}, err
	}
	res := SettleResult{Order: o}

	var txStatus string
	if err := tx.QueryRow(ctx, `SELECT status FROM transactions WHERE order_id=$1 FOR UPDATE`, o.ID).Scan(&txStatus); err != nil {
		return SettleResult{}, err
	}
	if TxStatus(txStatus) == TxCompleted {
		res.Duplicate = true
		return res, nil
	}
	if o.Status == StatusDisputed {
		res.Skipped = true
		return res, nil
	}
	if o.Status == StatusCancelled || o.Status == StatusRefunded {
		// refund/failure menang; jangan complete ledger di atasnya
		res.Skipped = true
		return res, nil
	}

	if err := setPaymentRef(ctx, tx, o, paymentRef); err != nil {
		return SettleResult{}, err
	}
	if !IsPaidOrLater(o.Status) {
		err = tx.QueryRow(ctx, `
			UPDATE orders SET status='PAID', paid_at=now(), updated_at=now()
			WHERE id=$1 RETURNING paid_at, updated_at`, o.ID).Scan(&o.PaidAt, &o.UpdatedAt)
		if err != nil {
			return SettleResult{}, err
		}
		o.Status = StatusPaid
		res.BecamePaid = true
	}
	if _, err := tx.Exec(ctx, `UPDATE transactions SET status='COMPLETED', updated_at=now() WHERE order_id=$1`, o.ID); err != nil {
		return SettleResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return SettleResult{}, err
	}
	res.Applied = true
	return res, nil
}

// RefundByRef: handler charge.refunded. Refund idempoten di sisi provider;
// berlaku juga untuk order DISPUTED (refund menyelesaikan sisi uangnya).
// Amounts di ledger tidak diubah, hanya status (audit trail).
func (r *Repo) RefundByRef(ctx context.Context, paymentRef, orderIDHint string) (SettleResult, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return SettleResult{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := lockOrder(ctx, tx, paymentRef, orderIDHint)
	if err != nil {
		return SettleResult{}, err
	}
	res := SettleResult{Order: o}
	if o.Status == StatusRefunded {
		res.Duplicate = true
		return res, nil
	}

	err = tx.QueryRow(ctx, `UPDATE orders SET status='REFUNDED', updated_at=now() WHERE id=$1 RETURNING updated_at`,
		o.ID).Scan(&o.UpdatedAt)
	if err != nil {
		return SettleResult{}, err
	}
	o.Status = StatusRefunded
	if _, err := tx.Exec(ctx, `UPDATE transactions SET status='REFUNDED', updated_at=now() WHERE order_id=$1`, o.ID); err != nil {
		return SettleResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return SettleResult{}, err
	}
	res.Applied = true
	return res, nil
}

// FailPaymentByRef: handler payment_intent.payment_failed.
// Hanya dari PENDING/PAID; state lebih lanjut berarti event telat -> skip.
func (r *Repo) FailPaymentByRef(ctx context.Context, paymentRef, orderIDHint string) (SettleResult, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return SettleResult{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := lockOrder(ctx, tx, paymentRef, orderIDHint)
	if err != nil {
		return SettleResult{}, err
	}
	res := SettleResult{Order: o}
	if o.Status == StatusCancelled {
		res.Duplicate = true
		return res, nil
	}
	if o.Status != StatusPending && o.Status != StatusPaid {
		res.Skipped = true
		return res, nil
	}

	err = tx.QueryRow(ctx, `UPDATE orders SET status='CANCELLED', updated_at=now() WHERE id=$1 RETURNING updated_at`,
		o.ID).Scan(&o.UpdatedAt)
	if err != nil {
		return SettleResult{}, err
	}
	o.Status = StatusCancelled
	if _, err := tx.Exec(ctx, `UPDATE transactions SET status='FAILED', updated_at=now() WHERE order_id=$1`, o.ID); err != nil {
		return SettleResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return SettleResult{}, err
	}
	res.Applied = true
	return res, nil
}

package market

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct {
	DB     *pgxpool.Pool
	FeeBps int // platform fee dalam basis points, e.g. 1000 = 10%
}

const orderColumns = `id, buyer_id, product_id, variant_id, seller_id, amount_cents,
       status, COALESCE(external_payment_ref,''), paid_at, created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var st string
	err := row.Scan(&o.ID, &o.BuyerID, &o.ProductID, &o.VariantID, &o.SellerID,
		&o.AmountCents, &st, &o.PaymentRef, &o.PaidAt, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	o.Status = OrderStatus(st)
	return &o, nil
}

// CreateOrderTx: checkout initiation. Order (PENDING) + Transaction (PENDING)
// dibuat dalam satu tx; harga diambil dari variant (hindari trust dari client),
// fee dihitung sekali dan tidak pernah di-recompute.
func (r *Repo) CreateOrderTx(ctx context.Context, buyerID, variantID string) (*Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var productID, sellerID string
	var price int
	err = tx.QueryRow(ctx, `
		SELECT v.product_id, p.seller_id, v.price_cents
		FROM variants v JOIN products p ON p.id = v.product_id
		WHERE v.id = $1`, variantID).Scan(&productID, &sellerID, &price)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrVariantNotFound
	}
	if err != nil {
		return nil, err
	}

	fee := price * r.FeeBps / 10000

	o := &Order{
		ID:          uuid.NewString(),
		BuyerID:     buyerID,
		ProductID:   productID,
		VariantID:   variantID,
		SellerID:    sellerID,
		AmountCents: price,
		Status:      StatusPending,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO orders(id, buyer_id, product_id, variant_id, seller_id, amount_cents, status)
		VALUES ($1,$2,$3,$4,$5,$6,'PENDING')
		RETURNING created_at, updated_at`,
		o.ID, o.BuyerID, o.ProductID, o.VariantID, o.SellerID, o.AmountCents).
		Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions(order_id, total_cents, platform_fee_cents, seller_cents, status)
		VALUES ($1,$2,$3,$4,'PENDING')`,
		o.ID, price, fee, price-fee)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *Repo) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	return scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, orderID))
}

func (r *Repo) GetTransaction(ctx context.Context, orderID string) (*Transaction, error) {
	var t Transaction
	var st string
	err := r.DB.QueryRow(ctx, `
		SELECT order_id, total_cents, platform_fee_cents, seller_cents, status,
		       COALESCE(external_payment_ref,''), created_at, updated_at
		FROM transactions WHERE order_id=$1`, orderID).
		Scan(&t.OrderID, &t.TotalCents, &t.PlatformFeeCents, &t.SellerCents, &st,
			&t.PaymentRef, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	t.Status = TxStatus(st)
	return &t, nil
}

// fulfillment moves yang boleh lewat API; DISPUTED/REFUNDED/CANCELLED/PAID
// hanya lewat webhook atau dispute resolution.
var fulfillmentTargets = map[OrderStatus]bool{
	StatusProcessing: true,
	StatusShipped:    true,
	StatusDelivered:  true,
	StatusCompleted:  true,
}

// AdvanceStatus: seller menggerakkan PAID->PROCESSING->SHIPPED->DELIVERED,
// buyer meng-confirm DELIVERED->COMPLETED.
func (r *Repo) AdvanceStatus(ctx context.Context, orderID, actorID string, to OrderStatus) (*Order, error) {
	if !fulfillmentTargets[to] {
		return nil, ErrInvalidState
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := scanOrder(tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1 FOR UPDATE`, orderID))
	if err != nil {
		return nil, err
	}

	owner := o.SellerID
	if to == StatusCompleted {
		owner = o.BuyerID
	}
	if actorID != owner {
		return nil, ErrForbidden
	}
	if !CanTransition(o.Status, to) {
		return nil, ErrInvalidState
	}

	err = tx.QueryRow(ctx, `UPDATE orders SET status=$2, updated_at=now() WHERE id=$1 RETURNING updated_at`,
		orderID, string(to)).Scan(&o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.Status = to

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return o, nil
}

// Balance: pure fold di atas ledger, tidak ada running total yang disimpan.
// Hanya transaksi COMPLETED yang dihitung.
func (r *Repo) Balance(ctx context.Context, sellerID string) (int, error) {
	var cents int
	err := r.DB.QueryRow(ctx, `
		SELECT COALESCE(SUM(t.seller_cents), 0)
		FROM transactions t
		JOIN orders o ON o.id = t.order_id
		WHERE o.seller_id = $1 AND t.status = 'COMPLETED'`, sellerID).Scan(&cents)
	return cents, err
}

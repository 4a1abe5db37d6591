package market

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReviewRepo struct{ DB *pgxpool.Pool }

// CreateTx: review hanya untuk order COMPLETED milik si buyer; satu per order
// (unique order_id). is_verified selalu true -- purchase-gated by construction.
func (r *ReviewRepo) CreateTx(ctx context.Context, rv *Review) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := scanOrder(tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1 FOR UPDATE`, rv.OrderID))
	if err != nil {
		return err
	}
	if o.BuyerID != rv.BuyerID {
		return ErrForbidden
	}
	if o.Status != StatusCompleted {
		return ErrInvalidState
	}

	rv.ID = uuid.NewString()
	rv.ProductID = o.ProductID
	rv.SellerID = o.SellerID
	rv.IsVerified = true
	err = tx.QueryRow(ctx, `
		INSERT INTO reviews(id, order_id, buyer_id, product_id, seller_id, rating, comment, is_verified)
		VALUES ($1,$2,$3,$4,$5,$6,$7,true)
		RETURNING created_at`,
		rv.ID, rv.OrderID, rv.BuyerID, rv.ProductID, rv.SellerID, rv.Rating, rv.Comment).Scan(&rv.CreatedAt)
	if isUniqueViolation(err) {
		return ErrReviewExists
	}
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type ReviewStats struct {
	AvgRating    float64 `json:"avg_rating"`
	TotalReviews int     `json:"total_reviews"`
}

type ReviewFilter struct {
	ProductID string
	SellerID  string
	Page      int
	Limit     int
}

func (r *ReviewRepo) List(ctx context.Context, f ReviewFilter) ([]Review, ReviewStats, error) {
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Page <= 0 {
		f.Page = 1
	}

	where := `WHERE ($1 = '' OR product_id = $1) AND ($2 = '' OR seller_id = $2)`
	var stats ReviewStats
	err := r.DB.QueryRow(ctx, `
		SELECT COALESCE(AVG(rating), 0), COUNT(*) FROM reviews `+where,
		f.ProductID, f.SellerID).Scan(&stats.AvgRating, &stats.TotalReviews)
	if err != nil {
		return nil, stats, err
	}

	rows, err := r.DB.Query(ctx, `
		SELECT id, order_id, buyer_id, product_id, seller_id, rating, comment, is_verified, created_at
		FROM reviews `+where+`
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`, f.ProductID, f.SellerID, f.Limit, (f.Page-1)*f.Limit)
	if err != nil {
		return nil, stats, err
	}
	defer rows.Close()

	var out []Review
	for rows.Next() {
		var rv Review
		if err := rows.Scan(&rv.ID, &rv.OrderID, &rv.BuyerID, &rv.ProductID, &rv.SellerID,
			&rv.Rating, &rv.Comment, &rv.IsVerified, &rv.CreatedAt); err != nil {
			return nil, stats, err
		}
		out = append(out, rv)
	}
	return out, stats, rows.Err()
}

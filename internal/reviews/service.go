package reviews

import (
	"context"
	"fmt"

	"github.com/ariefcatur/go-digital-market.git/internal/market"
	"github.com/rs/zerolog"
)

type Store interface {
	CreateTx(ctx context.Context, rv *market.Review) error
	List(ctx context.Context, f market.ReviewFilter) ([]market.Review, market.ReviewStats, error)
}

type Service struct {
	Store Store
	Log   zerolog.Logger
}

type CreateInput struct {
	OrderID string `json:"order_id"`
	BuyerID string `json:"buyer_id"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// Create: review purchase-gated; hanya order COMPLETED, sekali per order.
func (s *Service) Create(ctx context.Context, in CreateInput) (*market.Review, error) {
	if in.OrderID == "" || in.BuyerID == "" {
		return nil, fmt.Errorf("%w: order_id and buyer_id are required", market.ErrValidation)
	}
	if in.Rating < 1 || in.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", market.ErrValidation)
	}

	rv := &market.Review{
		OrderID: in.OrderID,
		BuyerID: in.BuyerID,
		Rating:  in.Rating,
		Comment: in.Comment,
	}
	if err := s.Store.CreateTx(ctx, rv); err != nil {
		return nil, err
	}
	s.Log.Info().Str("review_id", rv.ID).Str("order_id", rv.OrderID).Int("rating", rv.Rating).Msg("review created")
	return rv, nil
}

func (s *Service) List(ctx context.Context, f market.ReviewFilter) ([]market.Review, market.ReviewStats, error) {
	return s.Store.List(ctx, f)
}

package disputes

import (
	"context"
	"fmt"
	"strings"

	"github.com/ariefcatur/go-digital-market.git/internal/market"
	"github.com/rs/zerolog"
)

const minDescriptionLen = 20

// Store: atomic dispute writes (lihat market.DisputeRepo).
type Store interface {
	OpenTx(ctx context.Context, d *market.Dispute) error
	Resolve(ctx context.Context, disputeID, resolution string) (*market.Dispute, error)
	List(ctx context.Context, f market.DisputeFilter) ([]market.Dispute, int, error)
}

// Limiter: bounded per buyer per rolling day.
type Limiter interface {
	Allow(ctx context.Context, actorID string) (bool, error)
}

type Service struct {
	Store   Store
	Limiter Limiter
	Log     zerolog.Logger
}

type OpenInput struct {
	OrderID     string `json:"order_id"`
	BuyerID     string `json:"buyer_id"`
	Reason      string `json:"reason"`
	Description string `json:"description"`
}

// Open: validasi input -> rate limit -> write atomik (dispute OPEN + order DISPUTED).
func (s *Service) Open(ctx context.Context, in OpenInput) (*market.Dispute, error) {
	if in.OrderID == "" || in.BuyerID == "" || strings.TrimSpace(in.Reason) == "" {
		return nil, fmt.Errorf("%w: order_id, buyer_id and reason are required", market.ErrValidation)
	}
	if len(strings.TrimSpace(in.Description)) < minDescriptionLen {
		return nil, fmt.Errorf("%w: description must be at least %d characters", market.ErrValidation, minDescriptionLen)
	}

	ok, err := s.Limiter.Allow(ctx, in.BuyerID)
	if err != nil {
		// limiter down: fail closed untuk endpoint abuse-prone
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	if !ok {
		return nil, market.ErrRateLimited
	}

	d := &market.Dispute{
		OrderID:     in.OrderID,
		BuyerID:     in.BuyerID,
		Reason:      in.Reason,
		Description: in.Description,
	}
	if err := s.Store.OpenTx(ctx, d); err != nil {
		return nil, err
	}
	s.Log.Info().Str("dispute_id", d.ID).Str("order_id", d.OrderID).Msg("dispute opened")
	return d, nil
}

func (s *Service) Resolve(ctx context.Context, disputeID, resolution string) (*market.Dispute, error) {
	d, err := s.Store.Resolve(ctx, disputeID, resolution)
	if err != nil {
		return nil, err
	}
	s.Log.Info().Str("dispute_id", d.ID).Str("resolution", resolution).Msg("dispute resolved")
	return d, nil
}

func (s *Service) List(ctx context.Context, f market.DisputeFilter) ([]market.Dispute, int, error) {
	return s.Store.List(ctx, f)
}

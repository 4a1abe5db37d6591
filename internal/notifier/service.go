package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ariefcatur/go-digital-market.git/internal/market"
	"github.com/ariefcatur/go-digital-market.git/internal/redisx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
)

// Service: sisi consume. Delivery channel beneran (email/push) di luar scope;
// di sini delivery = structured log, tapi dedup & commit semantics-nya real.
type Service struct {
	Redis *redis.Client
	Log   zerolog.Logger
}

// HandleOrderPaid: dipasang sebagai handler consumer topic payment.order.paid.
func (s *Service) HandleOrderPaid(ctx context.Context, m kafkago.Message) error {
	var env market.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != market.EventOrderPaid {
		return nil
	} // ignore

	// dedup via Redis (pakai event_id); consumer group bisa redeliver
	dkey := fmt.Sprintf(redisx.KeyDedupNotifier, env.EventID)
	exists, _ := redisx.Exists(ctx, s.Redis, dkey)
	if exists {
		return nil
	}

	var p market.OrderPaidPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return err
	}

	s.Log.Info().
		Str("order_id", p.OrderID).
		Str("buyer_id", p.BuyerID).
		Str("product_id", p.ProductID).
		Int("amount_cents", p.AmountCents).
		Msg("order paid, notifying buyer")

	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	return nil
}

package notifier

import (
	"time"

	kafkax "github.com/ariefcatur/go-digital-market.git/internal/kafka"
	"github.com/ariefcatur/go-digital-market.git/internal/market"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher: sisi kirim notifikasi. Publish lewat inbox async producer,
// jadi settlement tidak pernah nunggu (atau gagal karena) Kafka.
type Publisher struct {
	Paid      *kafkax.Producer
	Refunded  *kafkax.Producer
	Cancelled *kafkax.Producer
	Service   string
	Log       zerolog.Logger
}

func (p *Publisher) publish(prod *kafkax.Producer, eventType, orderID string, payload any) {
	if prod == nil {
		return
	}
	ev := market.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      p.Service,
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	prod.Publish(market.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
	p.Log.Debug().Str("event_type", eventType).Str("order_id", orderID).Msg("notification queued")
}

func (p *Publisher) OrderPaid(o *market.Order) {
	p.publish(p.Paid, market.EventOrderPaid, o.ID, market.OrderPaidPayload{
		OrderID:     o.ID,
		BuyerID:     o.BuyerID,
		ProductID:   o.ProductID,
		AmountCents: o.AmountCents,
	})
}

func (p *Publisher) OrderRefunded(o *market.Order) {
	p.publish(p.Refunded, market.EventOrderRefunded, o.ID, market.OrderRefundedPayload{
		OrderID:     o.ID,
		BuyerID:     o.BuyerID,
		AmountCents: o.AmountCents,
	})
}

func (p *Publisher) OrderCancelled(o *market.Order, reason string) {
	p.publish(p.Cancelled, market.EventOrderCancelled, o.ID, market.OrderCancelledPayload{
		OrderID: o.ID,
		Reason:  reason,
	})
}

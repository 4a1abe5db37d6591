package webhook

import (
	"context"
	"errors"
	"time"

	"github.com/ariefcatur/go-digital-market.git/internal/market"
	"github.com/rs/zerolog"
)

var ErrMissingMetadata = errors.New("event metadata missing order correlation id")

// OrderStore: operasi settlement atomik (order + ledger dalam satu tx).
type OrderStore interface {
	MarkPaidByOrderID(ctx context.Context, orderID, paymentRef string) (market.SettleResult, error)
	CompletePaymentByRef(ctx context.Context, paymentRef, orderIDHint string) (market.SettleResult, error)
	RefundByRef(ctx context.Context, paymentRef, orderIDHint string) (market.SettleResult, error)
	FailPaymentByRef(ctx context.Context, paymentRef, orderIDHint string) (market.SettleResult, error)
}

// EventLedger: dedup durable. Seen sebelum handler, Record setelah commit.
type EventLedger interface {
	Seen(ctx context.Context, externalEventID string) (bool, error)
	Record(ctx context.Context, externalEventID, eventType string) error
}

// EventCache: probe cepat opsional di depan ledger (redis). Boleh nil.
type EventCache interface {
	Seen(ctx context.Context, externalEventID string) (bool, error)
	Mark(ctx context.Context, externalEventID string) error
}

// Notifier: side-effect best-effort; error tidak pernah nge-rollback settlement.
type Notifier interface {
	OrderPaid(o *market.Order)
	OrderRefunded(o *market.Order)
	OrderCancelled(o *market.Order, reason string)
}

type Service struct {
	Orders    OrderStore
	Events    EventLedger
	Cache     EventCache // optional
	Notify    Notifier   // optional
	Secret    string
	Tolerance time.Duration
	Log       zerolog.Logger

	now func() time.Time // test hook
}

// Receipt: badan respons 200 untuk provider.
type Receipt struct {
	Received  bool `json:"received"`
	Duplicate bool `json:"duplicate,omitempty"`
	Ignored   bool `json:"ignored,omitempty"`
}

func (s *Service) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// Handle: verifikasi signature atas raw body -> decode -> allow-list ->
// dedup gate -> handler per type -> record ledger -> ack.
// Handler gagal = error keluar TANPA record, biar provider retry.
func (s *Service) Handle(ctx context.Context, body []byte, sigHeader string) (Receipt, error) {
	if s.Secret == "" {
		return Receipt{}, ErrNotConfigured
	}
	if err := VerifySignature(s.Secret, sigHeader, body, s.clock(), s.Tolerance); err != nil {
		return Receipt{}, err
	}

	ev, err := DecodeEvent(body)
	if err != nil {
		return Receipt{}, err
	}
	if !Known(ev.Type) {
		s.Log.Debug().Str("event_type", ev.Type).Msg("unrecognized event type, dropping")
		return Receipt{Received: true, Ignored: true}, nil
	}

	// dedup: cache dulu (murah), DB tetap jadi kebenaran
	if s.Cache != nil {
		if hit, err := s.Cache.Seen(ctx, ev.ID); err == nil && hit {
			return Receipt{Received: true, Duplicate: true}, nil
		}
	}
	seen, err := s.Events.Seen(ctx, ev.ID)
	if err != nil {
		return Receipt{}, err
	}
	if seen {
		s.Log.Info().Str("event_id", ev.ID).Msg("duplicate event, short-circuit")
		return Receipt{Received: true, Duplicate: true}, nil
	}

	res, err := s.dispatch(ctx, ev)
	if err != nil {
		return Receipt{}, err
	}

	if err := s.Events.Record(ctx, ev.ID, ev.Type); err != nil {
		// belum di-ack; retry provider masuk lagi ke handler yang idempoten
		return Receipt{}, err
	}
	if s.Cache != nil {
		_ = s.Cache.Mark(ctx, ev.ID)
	}

	if res.Skipped {
		s.Log.Info().Str("event_id", ev.ID).Str("event_type", ev.Type).
			Str("order_id", res.Order.ID).Str("order_status", string(res.Order.Status)).
			Msg("transition skipped")
	}
	return Receipt{Received: true, Duplicate: res.Duplicate}, nil
}

func (s *Service) dispatch(ctx context.Context, ev *Event) (market.SettleResult, error) {
	var res market.SettleResult
	var err error

	switch ev.Type {
	case TypeCheckoutCompleted:
		orderID := metaOrderID(ev.Session.Metadata)
		if orderID == "" {
			// bug integrasi, bukan race runtime: checkout kita selalu set metadata
			return res, ErrMissingMetadata
		}
		res, err = s.Orders.MarkPaidByOrderID(ctx, orderID, ev.Session.PaymentIntent)

	case TypePaymentSucceeded:
		res, err = s.Orders.CompletePaymentByRef(ctx, ev.Intent.ID, metaOrderID(ev.Intent.Metadata))

	case TypeChargeRefunded:
		res, err = s.Orders.RefundByRef(ctx, ev.Charge.PaymentIntent, metaOrderID(ev.Charge.Metadata))
		if err == nil && res.Applied && s.Notify != nil {
			s.Notify.OrderRefunded(res.Order)
		}

	case TypePaymentFailed:
		res, err = s.Orders.FailPaymentByRef(ctx, ev.Intent.ID, metaOrderID(ev.Intent.Metadata))
		if err == nil && res.Applied && s.Notify != nil {
			s.Notify.OrderCancelled(res.Order, "PAYMENT_FAILED")
		}
	}
	if err != nil {
		return res, err
	}

	if res.BecamePaid && s.Notify != nil {
		s.Notify.OrderPaid(res.Order)
	}
	return res, nil
}

package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Event types yang kita proses; tipe lain di-ack lalu di-drop supaya provider
// tidak retry percuma.
const (
	TypeCheckoutCompleted = "checkout.session.completed"
	TypePaymentSucceeded  = "payment_intent.succeeded"
	TypeChargeRefunded    = "charge.refunded"
	TypePaymentFailed     = "payment_intent.payment_failed"
)

var ErrBadPayload = errors.New("malformed event payload")

func Known(eventType string) bool {
	switch eventType {
	case TypeCheckoutCompleted, TypePaymentSucceeded, TypeChargeRefunded, TypePaymentFailed:
		return true
	}
	return false
}

// Event: closed tagged union. Decode sekali di boundary; tiap type bawa
// payload bertipe sendiri, tidak ada shape-check dinamis di handler.
type Event struct {
	ID   string
	Type string

	Session *CheckoutSession // checkout.session.completed
	Intent  *PaymentIntent   // payment_intent.succeeded / payment_failed
	Charge  *Charge          // charge.refunded
}

type CheckoutSession struct {
	ID            string            `json:"id"`
	PaymentIntent string            `json:"payment_intent"`
	AmountTotal   int               `json:"amount_total"`
	Metadata      map[string]string `json:"metadata"`
}

type PaymentIntent struct {
	ID       string            `json:"id"`
	Amount   int               `json:"amount"`
	Metadata map[string]string `json:"metadata"`
}

type Charge struct {
	ID             string            `json:"id"`
	PaymentIntent  string            `json:"payment_intent"`
	AmountRefunded int               `json:"amount_refunded"`
	Metadata       map[string]string `json:"metadata"`
}

type envelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

func DecodeEvent(body []byte) (*Event, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if env.ID == "" || env.Type == "" {
		return nil, fmt.Errorf("%w: missing id or type", ErrBadPayload)
	}

	ev := &Event{ID: env.ID, Type: env.Type}
	if !Known(env.Type) {
		return ev, nil // ignored upstream
	}
	if len(env.Data.Object) == 0 {
		return nil, fmt.Errorf("%w: missing data.object", ErrBadPayload)
	}

	switch env.Type {
	case TypeCheckoutCompleted:
		ev.Session = &CheckoutSession{}
		if err := json.Unmarshal(env.Data.Object, ev.Session); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
		}
	case TypePaymentSucceeded, TypePaymentFailed:
		ev.Intent = &PaymentIntent{}
		if err := json.Unmarshal(env.Data.Object, ev.Intent); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
		}
	case TypeChargeRefunded:
		ev.Charge = &Charge{}
		if err := json.Unmarshal(env.Data.Object, ev.Charge); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
		}
	}
	return ev, nil
}

// metaOrderID: correlation id yang di-supply saat checkout dibuat.
func metaOrderID(m map[string]string) string { return m["order_id"] }

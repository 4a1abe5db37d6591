package market

import (
	"encoding/json"
	"time"
)

const (
	EventOrderPaid      = "OrderPaid"
	EventOrderRefunded  = "OrderRefunded"
	EventOrderCancelled = "OrderCancelled"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // salah satu const di atas
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "market-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // biasanya order_id
	Payload       json.RawMessage `json:"payload"`
}

// ---- Payload tipe per event ----

// OrderPaidPayload: kontrak notify(orderId, buyerId, productId, amount).
type OrderPaidPayload struct {
	OrderID     string `json:"order_id"`
	BuyerID     string `json:"buyer_id"`
	ProductID   string `json:"product_id"`
	AmountCents int    `json:"amount_cents"`
}

type OrderRefundedPayload struct {
	OrderID     string `json:"order_id"`
	BuyerID     string `json:"buyer_id"`
	AmountCents int    `json:"amount_cents"`
}

type OrderCancelledPayload struct {
	OrderID string `json:"order_id"`
	Reason  string `json:"reason"` // e.g., PAYMENT_FAILED
}

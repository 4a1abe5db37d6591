package market

import "time"

type Product struct {
	ID        string
	SellerID  string
	Title     string
	CreatedAt time.Time
}

type Variant struct {
	ID         string
	ProductID  string
	Title      string
	PriceCents int
}

type Order struct {
	ID          string
	BuyerID     string
	ProductID   string
	VariantID   string
	SellerID    string // denormalized dari products biar balance query murah
	AmountCents int
	Status      OrderStatus // lihat status.go
	PaymentRef  string      // external payment ref, kosong sebelum paid
	PaidAt      *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Transaction: ledger row, 1:1 dengan Order.
// seller_cents + platform_fee_cents == total_cents, dihitung sekali saat create.
type Transaction struct {
	OrderID          string
	TotalCents       int
	PlatformFeeCents int
	SellerCents      int
	Status           TxStatus
	PaymentRef       string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type Dispute struct {
	ID          string
	OrderID     string
	BuyerID     string
	Reason      string
	Description string
	Status      DisputeStatus
	Resolution  string
	CreatedAt   time.Time
	ResolvedAt  *time.Time
}

type Review struct {
	ID         string
	OrderID    string
	BuyerID    string
	ProductID  string
	SellerID   string
	Rating     int
	Comment    string
	IsVerified bool
	CreatedAt  time.Time
}

// WebhookEvent: dedup ledger. Kehadiran row = event sudah diproses.
type WebhookEvent struct {
	ExternalEventID string
	EventType       string
	Status          string // selalu PROCESSED
	RecordedAt      time.Time
}

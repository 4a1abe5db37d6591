package market

type OrderStatus string

const (
	StatusPending    OrderStatus = "PENDING"
	StatusPaid       OrderStatus = "PAID"
	StatusProcessing OrderStatus = "PROCESSING"
	StatusShipped    OrderStatus = "SHIPPED"
	StatusDelivered  OrderStatus = "DELIVERED"
	StatusCompleted  OrderStatus = "COMPLETED"
	StatusDisputed   OrderStatus = "DISPUTED"
	StatusCancelled  OrderStatus = "CANCELLED"
	StatusRefunded   OrderStatus = "REFUNDED"
)

type TxStatus string

const (
	TxPending   TxStatus = "PENDING"
	TxCompleted TxStatus = "COMPLETED"
	TxRefunded  TxStatus = "REFUNDED"
	TxFailed    TxStatus = "FAILED"
)

type DisputeStatus string

const (
	DisputeOpen      DisputeStatus = "OPEN"
	DisputeInReview  DisputeStatus = "IN_REVIEW"
	DisputeResolved  DisputeStatus = "RESOLVED"
	DisputeCancelled DisputeStatus = "CANCELLED"
)

var validNext = map[OrderStatus]map[OrderStatus]bool{
	StatusPending:    {StatusPaid: true, StatusCancelled: true},
	StatusPaid:       {StatusProcessing: true, StatusDisputed: true, StatusCancelled: true, StatusRefunded: true},
	StatusProcessing: {StatusShipped: true, StatusDisputed: true, StatusRefunded: true},
	StatusShipped:    {StatusDelivered: true, StatusDisputed: true, StatusRefunded: true},
	StatusDelivered:  {StatusCompleted: true, StatusDisputed: true, StatusRefunded: true},
	StatusDisputed:   {StatusPaid: true, StatusCompleted: true, StatusRefunded: true}, // hanya via dispute resolution
	StatusCompleted:  {},
	StatusCancelled:  {},
	StatusRefunded:   {},
}

func CanTransition(from, to OrderStatus) bool {
	return validNext[from][to]
}

// IsPaidOrLater: order sudah melewati PENDING lewat jalur sukses.
func IsPaidOrLater(s OrderStatus) bool {
	switch s {
	case StatusPaid, StatusProcessing, StatusShipped, StatusDelivered, StatusCompleted:
		return true
	}
	return false
}

// Disputable: state yang boleh dibuka dispute oleh buyer.
func Disputable(s OrderStatus) bool {
	switch s {
	case StatusPaid, StatusProcessing, StatusShipped, StatusDelivered:
		return true
	}
	return false
}

func Terminal(s OrderStatus) bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

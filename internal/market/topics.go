package market

const (
	TopicOrderPaid      = "payment.order.paid"
	TopicOrderRefunded  = "payment.order.refunded"
	TopicOrderCancelled = "payment.order.cancelled"
)

// Partition key = order_id, supaya semua event 1 order maintain urutan.
func PartitionKey(orderID string) []byte { return []byte(orderID) }

package market

import "errors"

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrVariantNotFound = errors.New("variant not found")

	// Ref payment dari provider tidak boleh ditimpa dengan nilai berbeda.
	ErrPaymentRefMismatch = errors.New("payment ref already set to a different value")

	ErrForbidden       = errors.New("actor does not own this order")
	ErrInvalidState    = errors.New("order state does not allow this operation")
	ErrDisputeExists   = errors.New("a dispute is already open for this order")
	ErrReviewExists    = errors.New("a review already exists for this order")
	ErrDisputeNotFound = errors.New("dispute not found")
	ErrValidation      = errors.New("invalid input")
	ErrRateLimited     = errors.New("too many requests")
)

package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ariefcatur/go-digital-market.git/internal/market"
	"github.com/ariefcatur/go-digital-market.git/internal/webhook"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// statusFor memetakan taksonomi error domain ke HTTP. Error yang tidak dikenal
// = 500; khusus webhook itu sinyal ke provider untuk retry.
func statusFor(err error) int {
	switch {
	case errors.Is(err, webhook.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, webhook.ErrSignatureInvalid),
		errors.Is(err, webhook.ErrBadPayload),
		errors.Is(err, webhook.ErrMissingMetadata),
		errors.Is(err, market.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, market.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, market.ErrOrderNotFound),
		errors.Is(err, market.ErrVariantNotFound),
		errors.Is(err, market.ErrDisputeNotFound):
		return http.StatusNotFound
	case errors.Is(err, market.ErrDisputeExists),
		errors.Is(err, market.ErrReviewExists):
		return http.StatusConflict
	case errors.Is(err, market.ErrInvalidState),
		errors.Is(err, market.ErrPaymentRefMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, market.ErrRateLimited):
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// pesan internal jangan bocor ke caller non-admin
func respondError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeError(w, code, msg)
}

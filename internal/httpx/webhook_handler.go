package httpx

import (
	"io"
	"net/http"

	"github.com/ariefcatur/go-digital-market.git/internal/webhook"
	"github.com/go-chi/chi/v5"
)

// Header signature dari payment provider.
const SignatureHeader = "X-Payment-Signature"

type WebhookHandler struct {
	Svc *webhook.Service
}

func (h *WebhookHandler) Register(r *chi.Mux) {
	r.Post("/webhooks/payments", h.handlePayments)
}

func (h *WebhookHandler) handlePayments(w http.ResponseWriter, r *http.Request) {
	// signature dihitung atas exact bytes; baca raw body sebelum decode apapun
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	receipt, err := h.Svc.Handle(r.Context(), body, r.Header.Get(SignatureHeader))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

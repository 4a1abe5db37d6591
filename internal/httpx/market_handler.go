package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ariefcatur/go-digital-market.git/internal/market"
	"github.com/go-chi/chi/v5"
)

type MarketHandler struct {
	Repo *market.Repo
}

type CheckoutReq struct {
	BuyerID   string `json:"buyer_id"`
	VariantID string `json:"variant_id"`
}

type CheckoutResp struct {
	OrderID     string `json:"order_id"`
	AmountCents int    `json:"amount_cents"`
	Status      string `json:"status"`
}

type AdvanceStatusReq struct {
	ActorID string `json:"actor_id"`
	Status  string `json:"status"`
}

func (h *MarketHandler) Register(r *chi.Mux) {
	r.Post("/checkout", h.checkout)
	r.Get("/orders/{id}", h.getOrder)
	r.Post("/orders/{id}/status", h.advanceStatus)
	r.Get("/sellers/{id}/balance", h.sellerBalance)
}

func reqCtx(r *http.Request, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), d)
}

func (h *MarketHandler) checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.BuyerID == "" || req.VariantID == "" {
		writeError(w, http.StatusBadRequest, "missing fields")
		return
	}

	ctx, cancel := reqCtx(r, 5*time.Second)
	defer cancel()

	o, err := h.Repo.CreateOrderTx(ctx, req.BuyerID, req.VariantID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, CheckoutResp{OrderID: o.ID, AmountCents: o.AmountCents, Status: string(o.Status)})
}

func (h *MarketHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := reqCtx(r, 3*time.Second)
	defer cancel()

	o, err := h.Repo.GetOrder(ctx, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":           o.ID,
		"status":       o.Status,
		"amount_cents": o.AmountCents,
		"paid_at":      o.PaidAt,
		"created_at":   o.CreatedAt,
	})
}

func (h *MarketHandler) advanceStatus(w http.ResponseWriter, r *http.Request) {
	var req AdvanceStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ActorID == "" || req.Status == "" {
		writeError(w, http.StatusBadRequest, "missing fields")
		return
	}

	ctx, cancel := reqCtx(r, 5*time.Second)
	defer cancel()

	o, err := h.Repo.AdvanceStatus(ctx, chi.URLParam(r, "id"), req.ActorID, market.OrderStatus(req.Status))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": o.ID, "status": o.Status})
}

func (h *MarketHandler) sellerBalance(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := reqCtx(r, 3*time.Second)
	defer cancel()

	cents, err := h.Repo.Balance(ctx, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"seller_id": chi.URLParam(r, "id"), "balance_cents": cents})
}

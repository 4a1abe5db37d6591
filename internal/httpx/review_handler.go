package httpx

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ariefcatur/go-digital-market.git/internal/market"
	"github.com/ariefcatur/go-digital-market.git/internal/reviews"
	"github.com/go-chi/chi/v5"
)

type ReviewHandler struct {
	Svc *reviews.Service
}

func (h *ReviewHandler) Register(r *chi.Mux) {
	r.Post("/reviews", h.create)
	r.Get("/reviews", h.list)
}

func (h *ReviewHandler) create(w http.ResponseWriter, r *http.Request) {
	var in reviews.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := reqCtx(r, 5*time.Second)
	defer cancel()

	rv, err := h.Svc.Create(ctx, in)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": rv.ID})
}

func (h *ReviewHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := market.ReviewFilter{
		ProductID: q.Get("product_id"),
		SellerID:  q.Get("seller_id"),
		Page:      atoiDefault(q.Get("page"), 1),
		Limit:     atoiDefault(q.Get("limit"), 20),
	}

	ctx, cancel := reqCtx(r, 3*time.Second)
	defer cancel()

	items, stats, err := h.Svc.List(ctx, f)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"stats": stats,
		"pagination": map[string]int{
			"page":  f.Page,
			"limit": f.Limit,
			"total": stats.TotalReviews,
		},
	})
}

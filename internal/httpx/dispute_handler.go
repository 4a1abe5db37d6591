package httpx

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/ariefcatur/go-digital-market.git/internal/disputes"
	"github.com/ariefcatur/go-digital-market.git/internal/market"
	"github.com/go-chi/chi/v5"
)

type DisputeHandler struct {
	Svc *disputes.Service
}

func (h *DisputeHandler) Register(r *chi.Mux) {
	r.Post("/disputes", h.create)
	r.Get("/disputes", h.list)
	r.Post("/disputes/{id}/resolve", h.resolve)
}

func (h *DisputeHandler) create(w http.ResponseWriter, r *http.Request) {
	var in disputes.OpenInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := reqCtx(r, 5*time.Second)
	defer cancel()

	d, err := h.Svc.Open(ctx, in)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": d.ID, "status": d.Status})
}

func (h *DisputeHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := market.DisputeFilter{
		BuyerID: q.Get("buyer_id"),
		Status:  q.Get("status"),
		Page:    atoiDefault(q.Get("page"), 1),
		Limit:   atoiDefault(q.Get("limit"), 20),
	}

	ctx, cancel := reqCtx(r, 3*time.Second)
	defer cancel()

	items, total, err := h.Svc.List(ctx, f)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"pagination": map[string]int{
			"page":  f.Page,
			"limit": f.Limit,
			"total": total,
		},
	})
}

type resolveReq struct {
	Resolution string `json:"resolution"`
}

func (h *DisputeHandler) resolve(w http.ResponseWriter, r *http.Request) {
	var req resolveReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := reqCtx(r, 5*time.Second)
	defer cancel()

	d, err := h.Svc.Resolve(ctx, chi.URLParam(r, "id"), req.Resolution)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": d.ID, "status": d.Status, "resolution": d.Resolution})
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

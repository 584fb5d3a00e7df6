package inventory

import (
	"errors"
	"net/http"
	"strings"

	"github.com/fjod/storefront/internal/httpapi"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	store  Store
	logger *zap.Logger
}

func NewHandler(store Store, logger *zap.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

type DecrementRequestDTO struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type StockResponse struct {
	Stocks []StockInfo `json:"stocks"`
}

// Routes mounts the inventory endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/stock", h.GetStock)
	r.Post("/stock/decrement", h.Decrement)
}

// GetStock serves GET /stock?ids=1,2,3
func (h *Handler) GetStock(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("ids")
	if raw == "" {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_request", "ids query parameter is required")
		return
	}

	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	stocks, err := h.store.GetStock(ids)
	if err != nil {
		h.logger.Error("failed to get stock", zap.Error(err))
		httpapi.RespondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	httpapi.RespondJSON(w, http.StatusOK, StockResponse{Stocks: stocks})
}

// Decrement serves POST /stock/decrement
func (h *Handler) Decrement(w http.ResponseWriter, r *http.Request) {
	var req DecrementRequestDTO
	if err := httpapi.DecodeJSON(w, r, &req); err != nil {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID == "" {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_product_id", "productId is required")
		return
	}

	info, err := h.store.Decrement(req.ProductID, req.Quantity)
	switch {
	case err == nil:
		h.logger.Info("stock decremented",
			zap.String("product_id", req.ProductID),
			zap.Int("quantity", req.Quantity),
			zap.Int("available", info.Available))
		httpapi.RespondJSON(w, http.StatusOK, info)
	case errors.Is(err, ErrInvalidQuantity):
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
	case errors.Is(err, ErrProductNotFound):
		httpapi.RespondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, ErrInsufficientStock):
		httpapi.RespondError(w, http.StatusConflict, "insufficient_stock", err.Error())
	default:
		h.logger.Error("failed to decrement stock", zap.Error(err))
		httpapi.RespondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

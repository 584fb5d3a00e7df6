package orders

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/httpapi"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Handler struct {
	repo    OrderRepository
	logger  *zap.Logger
	timeout time.Duration
	now     func() time.Time
}

func NewHandler(repo OrderRepository, logger *zap.Logger, timeout time.Duration) *Handler {
	return &Handler{repo: repo, logger: logger, timeout: timeout, now: time.Now}
}

type OrdersResponse struct {
	Orders []*Order `json:"orders"`
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/orders", h.PlaceOrder)
	r.Get("/orders", h.ListOrders)
	r.Get("/orders/{reference}", h.GetOrder)
	r.Patch("/orders/{reference}/status", h.UpdateStatus)
}

func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req PlaceOrderRequest
	if err := httpapi.DecodeJSON(w, r, &req); err != nil {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		httpapi.RespondError(w, http.StatusUnprocessableEntity, "invalid_order", err.Error())
		return
	}

	order := NewOrder(req, h.now().UTC())
	if err := h.repo.CreateOrder(ctx, order); err != nil {
		h.logger.Error("failed to create order", zap.String("order_id", req.OrderID), zap.Error(err))
		httpapi.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to place order")
		return
	}

	h.logger.Info("order placed",
		zap.String("order_reference", order.Reference.String()),
		zap.String("order_id", order.OrderID),
		zap.String("customer_id", order.CustomerID),
		zap.String("total_amount", order.TotalAmount.StringFixed(2)))
	httpapi.RespondJSON(w, http.StatusCreated, order)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	reference, err := uuid.Parse(chi.URLParam(r, "reference"))
	if err != nil {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_reference", "order reference must be a UUID")
		return
	}

	order, err := h.repo.GetOrder(ctx, reference)
	if errors.Is(err, ErrOrderNotFound) {
		httpapi.RespondError(w, http.StatusNotFound, "not_found", err.Error())
		return
	}
	if err != nil {
		h.logger.Error("failed to get order", zap.Error(err))
		httpapi.RespondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	httpapi.RespondJSON(w, http.StatusOK, order)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	customerID := r.URL.Query().Get("customer_id")
	if customerID == "" {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_request", "customer_id query parameter is required")
		return
	}

	orders, err := h.repo.ListOrdersByCustomer(ctx, customerID)
	if err != nil {
		h.logger.Error("failed to list orders", zap.Error(err))
		httpapi.RespondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	if orders == nil {
		orders = []*Order{}
	}
	httpapi.RespondJSON(w, http.StatusOK, OrdersResponse{Orders: orders})
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	reference, err := uuid.Parse(chi.URLParam(r, "reference"))
	if err != nil {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_reference", "order reference must be a UUID")
		return
	}

	var req UpdateStatusRequest
	if err := httpapi.DecodeJSON(w, r, &req); err != nil {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	next, err := ParseStatus(req.Status)
	if err != nil {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_status", err.Error())
		return
	}

	order, err := h.repo.UpdateStatus(ctx, reference, next)
	switch {
	case errors.Is(err, ErrOrderNotFound):
		httpapi.RespondError(w, http.StatusNotFound, "not_found", err.Error())
		return
	case errors.Is(err, ErrInvalidTransition):
		httpapi.RespondError(w, http.StatusConflict, "invalid_transition", err.Error())
		return
	case err != nil:
		h.logger.Error("failed to update order status", zap.String("order_reference", reference.String()), zap.Error(err))
		httpapi.RespondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	h.logger.Info("order status changed",
		zap.String("order_reference", reference.String()),
		zap.String("status", string(order.Status)))
	httpapi.RespondJSON(w, http.StatusOK, order)
}

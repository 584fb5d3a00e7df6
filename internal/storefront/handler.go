// Package storefront is the shopper-facing HTTP API: catalog pages, the
// session cart and checkout.
package storefront

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/catalog"
	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/client"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/httpapi"
	"github.com/fjod/storefront/internal/logger"
	"github.com/fjod/storefront/internal/pricing"
	"github.com/fjod/storefront/internal/summary"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Catalog interface {
	PricedProducts(ctx context.Context) ([]pricing.PricedProduct, error)
	Product(ctx context.Context, id string) (pricing.PricedProduct, error)
	ActiveOffers(ctx context.Context) ([]domain.Offer, error)
}

type Checkouter interface {
	Checkout(ctx context.Context, c checkout.Cart, customerID string, priority bool) checkout.Outcome
}

type Handler struct {
	catalog         Catalog
	orchestrator    Checkouter
	timeout         time.Duration
	checkoutTimeout time.Duration
	logger          *zap.Logger
}

func NewHandler(catalog Catalog, orchestrator Checkouter, timeout, checkoutTimeout time.Duration, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		catalog:         catalog,
		orchestrator:    orchestrator,
		timeout:         timeout,
		checkoutTimeout: checkoutTimeout,
		logger:          logger,
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CheckoutRequestDTO struct {
	Priority bool `json:"priority"`
}

type ProductsResponse struct {
	Products   []pricing.PricedProduct `json:"products"`
	Categories []string                `json:"categories"`
	Total      int                     `json:"total"`
}

type OffersResponse struct {
	Offers []domain.Offer `json:"offers"`
}

type CartLineDTO struct {
	cart.Line
	Subtotal decimal.Decimal `json:"subtotal"`
	Savings  decimal.Decimal `json:"savings"`
}

type CartResponse struct {
	Items         []CartLineDTO   `json:"items"`
	ItemCount     int             `json:"item_count"`
	DistinctCount int             `json:"distinct_count"`
	Priority      bool            `json:"priority"`
	Summary       summary.Summary `json:"summary"`
}

type FailedDecrementDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Error     string `json:"error"`
}

type CheckoutResponseDTO struct {
	OrderID          string               `json:"order_id"`
	OrderReference   string               `json:"order_reference"`
	Status           string               `json:"status"`
	TotalAmount      decimal.Decimal      `json:"total_amount"`
	ItemCount        int                  `json:"item_count"`
	Priority         checkout.Priority    `json:"priority"`
	FailedDecrements []FailedDecrementDTO `json:"failed_decrements"`
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/products", h.GetProducts)
	r.Get("/offers", h.GetOffers)
}

// SessionRoutes need a session in the request context.
func (h *Handler) SessionRoutes(r chi.Router) {
	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Delete("/", h.ClearCart)
		r.Post("/items", h.AddItem)
		r.Put("/items/{product_id}", h.UpdateQuantity)
		r.Delete("/items/{product_id}", h.RemoveItem)
	})
	r.Post("/checkout", h.Checkout)
}

// GET /api/v1/products?search=&category=&sort=
func (h *Handler) GetProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.catalog.PricedProducts(ctx)
	if err != nil {
		h.upstreamError(w, r, "failed to load products", err)
		return
	}

	q := r.URL.Query()
	page := catalog.Browse(products, catalog.Query{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Sort:     catalog.ParseSort(q.Get("sort")),
	})

	httpapi.RespondJSON(w, http.StatusOK, ProductsResponse{
		Products:   page,
		Categories: catalog.Categories(products),
		Total:      len(page),
	})
}

// GET /api/v1/offers
func (h *Handler) GetOffers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	offers, err := h.catalog.ActiveOffers(ctx)
	if err != nil {
		h.upstreamError(w, r, "failed to load offers", err)
		return
	}
	httpapi.RespondJSON(w, http.StatusOK, OffersResponse{Offers: offers})
}

// GET /api/v1/cart?priority=
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	priority := false
	if raw := r.URL.Query().Get("priority"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			httpapi.RespondError(w, http.StatusBadRequest, "invalid_priority", "priority must be true or false")
			return
		}
		priority = v
	}

	h.respondCart(w, r, http.StatusOK, priority, nil)
}

// POST /api/v1/cart/items
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := httpapi.DecodeJSON(w, r, &req); err != nil {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID == "" {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	product, err := h.catalog.Product(ctx, req.ProductID)
	if errors.Is(err, ErrProductNotFound) {
		httpapi.RespondError(w, http.StatusNotFound, "not_found", err.Error())
		return
	}
	if err != nil {
		h.upstreamError(w, r, "failed to load product", err)
		return
	}

	h.respondCart(w, r, http.StatusCreated, false, func(c *cart.Store) error {
		return c.AddItem(product)
	})
}

// PUT /api/v1/cart/items/{product_id}
func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "product_id")

	var req UpdateQuantityRequestDTO
	if err := httpapi.DecodeJSON(w, r, &req); err != nil {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	h.respondCart(w, r, http.StatusOK, false, func(c *cart.Store) error {
		c.UpdateQuantity(productID, req.Quantity)
		return nil
	})
}

// DELETE /api/v1/cart/items/{product_id}
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "product_id")
	h.respondCart(w, r, http.StatusOK, false, func(c *cart.Store) error {
		c.RemoveItem(productID)
		return nil
	})
}

// DELETE /api/v1/cart
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.respondCart(w, r, http.StatusOK, false, func(c *cart.Store) error {
		c.Clear()
		return nil
	})
}

// POST /api/v1/checkout
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequestDTO
	if err := httpapi.DecodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	s := sessionFromContext(r.Context())
	if s == nil {
		httpapi.RespondError(w, http.StatusInternalServerError, "internal_error", "session missing")
		return
	}

	// The order and stock calls finish even if the shopper disconnects.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.checkoutTimeout)
	defer cancel()

	out := h.orchestrator.Checkout(ctx, s.CheckoutCart(), CustomerFromContext(r.Context()), req.Priority)
	if out.Succeeded() {
		httpapi.RespondJSON(w, http.StatusCreated, checkoutResponse(out))
		return
	}

	log := logger.FromContext(r.Context(), h.logger)
	switch out.Reason {
	case checkout.ReasonPrecondition:
		httpapi.RespondError(w, http.StatusPreconditionFailed, "precondition_failed", out.Err.Error())
	case checkout.ReasonSubmission:
		log.Warn("order submission failed", zap.String("order_id", out.OrderID), zap.Error(out.Err))
		details := ""
		var se *client.StatusError
		if errors.As(out.Err, &se) {
			details = string(se.Body)
		}
		httpapi.RespondErrorDetails(w, http.StatusBadGateway, "order_submission_failed", out.Err.Error(), details)
	default:
		log.Error("checkout transport error", zap.String("order_id", out.OrderID), zap.Error(out.Err))
		httpapi.RespondError(w, http.StatusInternalServerError, "transport_error", "checkout failed unexpectedly")
	}
}

func checkoutResponse(out checkout.Outcome) CheckoutResponseDTO {
	failed := make([]FailedDecrementDTO, 0)
	for _, d := range out.FailedDecrements() {
		failed = append(failed, FailedDecrementDTO{
			ProductID: d.ProductID,
			Quantity:  d.Quantity,
			Error:     d.Err.Error(),
		})
	}

	resp := CheckoutResponseDTO{
		OrderID:          out.OrderID,
		OrderReference:   out.OrderReference,
		Status:           string(out.State),
		FailedDecrements: failed,
	}
	if out.Request != nil {
		resp.TotalAmount = out.Request.TotalAmount
		resp.ItemCount = out.Request.ItemCount
		resp.Priority = out.Request.Priority
	}
	return resp
}

// respondCart runs mutate, if any, under the session lock and answers with the
// resulting cart.
func (h *Handler) respondCart(w http.ResponseWriter, r *http.Request, status int, priority bool, mutate func(*cart.Store) error) {
	s := sessionFromContext(r.Context())
	if s == nil {
		httpapi.RespondError(w, http.StatusInternalServerError, "internal_error", "session missing")
		return
	}

	var resp CartResponse
	err := s.Do(func(c *cart.Store) error {
		if mutate != nil {
			if err := mutate(c); err != nil {
				return err
			}
		}
		resp = cartResponse(c.Lines(), priority)
		return nil
	})
	if errors.Is(err, cart.ErrCompositionLimitExceeded) {
		httpapi.RespondError(w, http.StatusConflict, "composition_limit_exceeded", err.Error())
		return
	}
	if err != nil {
		logger.FromContext(r.Context(), h.logger).Error("cart update failed", zap.Error(err))
		httpapi.RespondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	httpapi.RespondJSON(w, status, resp)
}

func cartResponse(lines cart.Lines, priority bool) CartResponse {
	items := make([]CartLineDTO, 0, len(lines))
	for _, l := range lines {
		items = append(items, CartLineDTO{Line: l, Subtotal: l.Subtotal(), Savings: l.Savings()})
	}
	return CartResponse{
		Items:         items,
		ItemCount:     lines.TotalItemCount(),
		DistinctCount: len(lines),
		Priority:      priority,
		Summary:       summary.Summarize(lines, priority),
	}
}

func (h *Handler) upstreamError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	logger.FromContext(r.Context(), h.logger).Error(msg, zap.Error(err))
	if errors.Is(err, context.DeadlineExceeded) {
		httpapi.RespondError(w, http.StatusGatewayTimeout, "timeout", msg)
		return
	}
	httpapi.RespondError(w, http.StatusBadGateway, "upstream_error", msg)
}

package orders

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidOrder      = errors.New("invalid order")
	ErrInvalidTransition = errors.New("invalid status transition")
)

type Status string

const (
	StatusPlaced     Status = "PLACED"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
)

// statusOrder is the fulfilment sequence. Orders only move forward along it.
var statusOrder = map[Status]int{
	StatusPlaced:     0,
	StatusProcessing: 1,
	StatusShipped:    2,
	StatusDelivered:  3,
}

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := statusOrder[st]; !ok {
		return "", fmt.Errorf("unknown order status %q", s)
	}
	return st, nil
}

// CanTransitionTo reports whether next is later in the fulfilment sequence.
// Steps may be skipped; going back or staying put is refused.
func (s Status) CanTransitionTo(next Status) bool {
	from, ok := statusOrder[s]
	if !ok {
		return false
	}
	to, ok := statusOrder[next]
	return ok && to > from
}

const (
	EventOrderPlaced        = "order.placed"
	EventOrderStatusChanged = "order.status_changed"
)

type Item struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// Order is a placed order. Reference is assigned by this service; OrderID is
// whatever the client sent and may repeat across orders.
type Order struct {
	Reference   uuid.UUID       `json:"orderReference"`
	OrderID     string          `json:"orderId"`
	CustomerID  string          `json:"customerId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	ItemCount   int             `json:"itemCount"`
	Priority    string          `json:"priority"`
	Status      Status          `json:"status"`
	Items       []Item          `json:"items"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// PlaceOrderRequest is the body of POST /orders.
type PlaceOrderRequest struct {
	OrderID     string          `json:"orderId"`
	CustomerID  string          `json:"customerId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	ItemCount   int             `json:"itemCount"`
	Priority    string          `json:"priority"`
	Items       []Item          `json:"items"`
}

// UpdateStatusRequest is the body of PATCH /orders/{reference}/status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// Validate checks the request shape. The total is trusted as sent.
func (r PlaceOrderRequest) Validate() error {
	switch {
	case r.OrderID == "":
		return fmt.Errorf("%w: orderId is required", ErrInvalidOrder)
	case r.CustomerID == "":
		return fmt.Errorf("%w: customerId is required", ErrInvalidOrder)
	case len(r.Items) == 0:
		return fmt.Errorf("%w: at least one item is required", ErrInvalidOrder)
	case r.Priority != "high" && r.Priority != "low":
		return fmt.Errorf("%w: priority must be high or low", ErrInvalidOrder)
	case r.TotalAmount.IsNegative():
		return fmt.Errorf("%w: totalAmount must not be negative", ErrInvalidOrder)
	}
	for _, it := range r.Items {
		if it.ProductID == "" {
			return fmt.Errorf("%w: item productId is required", ErrInvalidOrder)
		}
		if it.Quantity < 1 {
			return fmt.Errorf("%w: item %s quantity must be positive", ErrInvalidOrder, it.ProductID)
		}
	}
	return nil
}

// NewOrder builds a PLACED order with a fresh reference.
func NewOrder(req PlaceOrderRequest, now time.Time) *Order {
	return &Order{
		Reference:   uuid.New(),
		OrderID:     req.OrderID,
		CustomerID:  req.CustomerID,
		TotalAmount: req.TotalAmount,
		ItemCount:   req.ItemCount,
		Priority:    req.Priority,
		Status:      StatusPlaced,
		Items:       req.Items,
		CreatedAt:   now,
	}
}

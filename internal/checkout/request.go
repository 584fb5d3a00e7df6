package checkout

import (
	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/summary"
	"github.com/shopspring/decimal"
)

type Priority string

const (
	PriorityHigh Priority = "high"
	PriorityLow  Priority = "low"
)

func priorityOf(priority bool) Priority {
	if priority {
		return PriorityHigh
	}
	return PriorityLow
}

// OrderItem is a line captured at submission time.
type OrderItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// Request is the order submitted to the order service. It is built once from a
// copy of the cart lines and never re-read from the live cart.
type Request struct {
	OrderID     string          `json:"orderId"`
	CustomerID  string          `json:"customerId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	ItemCount   int             `json:"itemCount"`
	Priority    Priority        `json:"priority"`
	Items       []OrderItem     `json:"items"`
}

// Confirmation is the order service's answer to an accepted order.
type Confirmation struct {
	OrderReference string `json:"orderReference"`
}

func newRequest(orderID, customerID string, lines cart.Lines, priority bool) *Request {
	items := make([]OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, OrderItem{
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}

	return &Request{
		OrderID:     orderID,
		CustomerID:  customerID,
		TotalAmount: summary.Summarize(lines, priority).Total,
		ItemCount:   lines.TotalItemCount(),
		Priority:    priorityOf(priority),
		Items:       items,
	}
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry as the storefront sees it. Stock is the availability
// reported by the inventory service at the time the catalog snapshot was taken.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Description string          `json:"description"`
	ImageURL    string          `json:"image_url"`
	CreatedAt   time.Time       `json:"created_at"`
}

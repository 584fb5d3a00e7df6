package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AllProducts marks an offer that applies to every product.
const AllProducts = "All Products"

// Mechanism is the way an offer discounts a product.
type Mechanism string

const (
	MechanismPercentage   Mechanism = "percentage"
	MechanismFixedAmount  Mechanism = "fixed_amount"
	MechanismBuyNGetOne   Mechanism = "buy_one_get_one"
	MechanismFreeShipping Mechanism = "free_shipping"
)

// AffectsPrice reports whether the mechanism changes the unit price.
// Buy-N-get-one and free shipping are only shown to the shopper.
func (m Mechanism) AffectsPrice() bool {
	return m == MechanismPercentage || m == MechanismFixedAmount
}

func (m Mechanism) String() string {
	return string(m)
}

// ParseMechanism accepts both the underscore wire values and the hyphenated spellings.
func ParseMechanism(s string) (Mechanism, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "percentage":
		return MechanismPercentage, nil
	case "fixed_amount", "fixed-amount":
		return MechanismFixedAmount, nil
	case "buy_one_get_one", "buy-n-get-one", "buy-one-get-one":
		return MechanismBuyNGetOne, nil
	case "free_shipping", "free-shipping":
		return MechanismFreeShipping, nil
	default:
		return "", fmt.Errorf("unknown offer mechanism %q", s)
	}
}

// UnmarshalText normalizes hyphenated spellings on decode. An unknown
// mechanism is kept as-is and never affects price.
func (m *Mechanism) UnmarshalText(text []byte) error {
	parsed, err := ParseMechanism(string(text))
	if err != nil {
		*m = Mechanism(strings.ToLower(strings.TrimSpace(string(text))))
		return nil
	}
	*m = parsed
	return nil
}

// OfferStatus is the lifecycle state of an offer.
type OfferStatus string

const (
	OfferStatusActive    OfferStatus = "active"
	OfferStatusScheduled OfferStatus = "scheduled"
	OfferStatusExpired   OfferStatus = "expired"
	OfferStatusPaused    OfferStatus = "paused"
)

// Offer is a promotion fetched from the catalog. Offers are immutable for the
// duration of a cart session; the time window and usage fields are informational.
type Offer struct {
	ID                 string           `json:"id"`
	Name               string           `json:"name"`
	Description        string           `json:"description"`
	Mechanism          Mechanism        `json:"type"`
	Value              decimal.Decimal  `json:"value"`
	Code               string           `json:"code"`
	StartsAt           time.Time        `json:"start_date"`
	EndsAt             time.Time        `json:"end_date"`
	Status             OfferStatus      `json:"status"`
	UsageCount         int              `json:"usage_count"`
	UsageLimit         *int             `json:"usage_limit,omitempty"`
	MinimumOrderAmount *decimal.Decimal `json:"minimum_order_amount,omitempty"`
	ApplicableProducts []string         `json:"applicable_products"`
	CreatedAt          time.Time        `json:"created_date"`
}

// IsActive reports whether the offer may be applied.
func (o Offer) IsActive() bool {
	return o.Status == OfferStatusActive
}

// AppliesTo matches the product by exact name, by category, or through the
// "All Products" marker.
func (o Offer) AppliesTo(p Product) bool {
	for _, target := range o.ApplicableProducts {
		if target == AllProducts || target == p.Name || target == p.Category {
			return true
		}
	}
	return false
}

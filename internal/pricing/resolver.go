package pricing

import (
	"github.com/fjod/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// AppliedOffer is the offer that matched a product, kept for display.
type AppliedOffer struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Code      string           `json:"code"`
	Mechanism domain.Mechanism `json:"type"`
}

// PricedProduct is a product with its effective unit price resolved.
type PricedProduct struct {
	domain.Product
	OriginalPrice      decimal.Decimal `json:"original_price"`
	EffectivePrice     decimal.Decimal `json:"effective_price"`
	HasDiscount        bool            `json:"has_discount"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	Offer              *AppliedOffer   `json:"offer,omitempty"`
}

// OfferCode returns the redemption code of the matched offer, if any.
func (p PricedProduct) OfferCode() string {
	if p.Offer == nil {
		return ""
	}
	return p.Offer.Code
}

// Resolve picks the first active offer that applies to the product, in the order
// the offers were given, and computes the effective unit price from it. The first
// match wins even when a later offer would discount more.
func Resolve(product domain.Product, offers []domain.Offer) PricedProduct {
	priced := PricedProduct{
		Product:        product,
		OriginalPrice:  product.Price,
		EffectivePrice: product.Price,
	}

	offer, ok := firstMatch(product, offers)
	if !ok {
		return priced
	}

	priced.Offer = &AppliedOffer{
		ID:        offer.ID,
		Name:      offer.Name,
		Code:      offer.Code,
		Mechanism: offer.Mechanism,
	}
	if !offer.Mechanism.AffectsPrice() {
		return priced
	}

	priced.EffectivePrice = discounted(product.Price, offer)
	priced.HasDiscount = true
	if product.Price.IsPositive() {
		saved := product.Price.Sub(priced.EffectivePrice)
		priced.DiscountPercentage = saved.Mul(hundred).Div(product.Price).Round(0)
	}
	return priced
}

// ResolveAll prices every product against the same offer set.
func ResolveAll(products []domain.Product, offers []domain.Offer) []PricedProduct {
	priced := make([]PricedProduct, len(products))
	for i, p := range products {
		priced[i] = Resolve(p, offers)
	}
	return priced
}

func firstMatch(product domain.Product, offers []domain.Offer) (domain.Offer, bool) {
	for _, offer := range offers {
		if offer.IsActive() && offer.AppliesTo(product) {
			return offer, true
		}
	}
	return domain.Offer{}, false
}

func discounted(base decimal.Decimal, offer domain.Offer) decimal.Decimal {
	var price decimal.Decimal
	switch offer.Mechanism {
	case domain.MechanismPercentage:
		factor := decimal.NewFromInt(1).Sub(offer.Value.Div(hundred))
		price = base.Mul(factor)
	case domain.MechanismFixedAmount:
		price = base.Sub(offer.Value)
	default:
		return base
	}
	if price.IsNegative() {
		return decimal.Zero
	}
	return price.Round(2)
}

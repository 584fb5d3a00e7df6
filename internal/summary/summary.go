package summary

import "github.com/shopspring/decimal"

var (
	// PriorityFee is the flat surcharge for expedited processing.
	PriorityFee = decimal.RequireFromString("15.00")
	// TaxRate is applied to the subtotal with no jurisdiction logic.
	TaxRate = decimal.RequireFromString("0.08")
)

// Totals is the part of a cart the calculator reads.
type Totals interface {
	TotalPrice() decimal.Decimal
	TotalSavings() decimal.Decimal
}

// Summary is the order summary shown before checkout.
type Summary struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	Discount    decimal.Decimal `json:"discount"`
	Shipping    decimal.Decimal `json:"shipping"`
	PriorityFee decimal.Decimal `json:"priority_fee"`
	Tax         decimal.Decimal `json:"tax"`
	Total       decimal.Decimal `json:"total"`
}

// Summarize derives the order summary. Shipping is always free; tax is rounded to cents.
func Summarize(cart Totals, priority bool) Summary {
	subtotal := cart.TotalPrice()
	fee := decimal.Zero
	if priority {
		fee = PriorityFee
	}
	tax := subtotal.Mul(TaxRate).Round(2)

	return Summary{
		Subtotal:    subtotal,
		Discount:    cart.TotalSavings(),
		Shipping:    decimal.Zero,
		PriorityFee: fee,
		Tax:         tax,
		Total:       subtotal.Add(fee).Add(tax),
	}
}

package summary

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type fixedTotals struct {
	price   string
	savings string
}

func (f fixedTotals) TotalPrice() decimal.Decimal   { return decimal.RequireFromString(f.price) }
func (f fixedTotals) TotalSavings() decimal.Decimal { return decimal.RequireFromString(f.savings) }

func TestSummarize_Priority(t *testing.T) {
	s := Summarize(fixedTotals{price: "200", savings: "0"}, true)

	assert.Equal(t, "200.00", s.Subtotal.StringFixed(2))
	assert.Equal(t, "0.00", s.Shipping.StringFixed(2))
	assert.Equal(t, "15.00", s.PriorityFee.StringFixed(2))
	assert.Equal(t, "16.00", s.Tax.StringFixed(2))
	assert.Equal(t, "231.00", s.Total.StringFixed(2))
}

func TestSummarize_Standard(t *testing.T) {
	s := Summarize(fixedTotals{price: "206.50", savings: "40"}, false)

	assert.True(t, s.PriorityFee.IsZero())
	assert.Equal(t, "40.00", s.Discount.StringFixed(2))
	assert.Equal(t, "16.52", s.Tax.StringFixed(2))
	assert.Equal(t, "223.02", s.Total.StringFixed(2))
}

func TestSummarize_TaxRoundsToCents(t *testing.T) {
	s := Summarize(fixedTotals{price: "49.99", savings: "0"}, false)

	// 49.99 * 0.08 = 3.9992
	assert.Equal(t, "4.00", s.Tax.StringFixed(2))
	assert.Equal(t, "53.99", s.Total.StringFixed(2))
}

func TestSummarize_EmptyCart(t *testing.T) {
	s := Summarize(fixedTotals{price: "0", savings: "0"}, true)

	assert.True(t, s.Subtotal.IsZero())
	assert.True(t, s.Tax.IsZero())
	assert.Equal(t, "15.00", s.Total.StringFixed(2))
}

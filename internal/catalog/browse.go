package catalog

import (
	"slices"
	"strings"

	"github.com/fjod/storefront/internal/pricing"
)

// CategoryAll disables the category filter.
const CategoryAll = "all"

type Sort string

const (
	SortName      Sort = "name"
	SortPriceLow  Sort = "price-low"
	SortPriceHigh Sort = "price-high"
	SortQuantity  Sort = "quantity"
)

// ParseSort maps unknown or empty values to SortName.
func ParseSort(s string) Sort {
	switch Sort(strings.ToLower(strings.TrimSpace(s))) {
	case SortPriceLow:
		return SortPriceLow
	case SortPriceHigh:
		return SortPriceHigh
	case SortQuantity:
		return SortQuantity
	default:
		return SortName
	}
}

// Query is a catalog page request.
type Query struct {
	Search   string
	Category string
	Sort     Sort
}

// Browse filters and sorts priced products. Search is a case-insensitive
// substring match on name or description. Price sorts use the base price.
// The input slice is not modified.
func Browse(products []pricing.PricedProduct, q Query) []pricing.PricedProduct {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	category := strings.TrimSpace(q.Category)

	out := make([]pricing.PricedProduct, 0, len(products))
	for _, p := range products {
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		if category != "" && category != CategoryAll && p.Category != category {
			continue
		}
		out = append(out, p)
	}

	slices.SortStableFunc(out, func(a, b pricing.PricedProduct) int {
		switch q.Sort {
		case SortPriceLow:
			return a.Price.Cmp(b.Price)
		case SortPriceHigh:
			return b.Price.Cmp(a.Price)
		case SortQuantity:
			return b.Stock - a.Stock
		default:
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	})
	return out
}

// Categories lists "all" followed by the distinct product categories in first-seen order.
func Categories(products []pricing.PricedProduct) []string {
	out := []string{CategoryAll}
	for _, p := range products {
		if !slices.Contains(out, p.Category) {
			out = append(out, p.Category)
		}
	}
	return out
}

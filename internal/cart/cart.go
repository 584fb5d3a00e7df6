package cart

import (
	"errors"

	"github.com/fjod/storefront/internal/pricing"
	"github.com/shopspring/decimal"
)

// MaxDistinctProducts is the composition limit of a single cart.
const MaxDistinctProducts = 5

var ErrCompositionLimitExceeded = errors.New("maximum 5 different products allowed per order")

// Line is one row of the cart. UnitPrice is already discount-adjusted;
// OriginalPrice is set only when a discount applied.
type Line struct {
	ProductID     string           `json:"product_id"`
	Name          string           `json:"name"`
	UnitPrice     decimal.Decimal  `json:"unit_price"`
	OriginalPrice *decimal.Decimal `json:"original_price,omitempty"`
	HasDiscount   bool             `json:"has_discount"`
	Quantity      int              `json:"quantity"`
	ImageURL      string           `json:"image_url"`
	Category      string           `json:"category"`
	StockCeiling  int              `json:"stock_ceiling"`
}

// Subtotal is the line price for its quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Savings is what the discount saved on this line for its quantity.
func (l Line) Savings() decimal.Decimal {
	if !l.HasDiscount || l.OriginalPrice == nil {
		return decimal.Zero
	}
	return l.OriginalPrice.Sub(l.UnitPrice).Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Lines is an ordered set of cart lines, as held by a Store or captured from one.
type Lines []Line

// TotalItemCount is the sum of all line quantities.
func (ls Lines) TotalItemCount() int {
	total := 0
	for _, l := range ls {
		total += l.Quantity
	}
	return total
}

// TotalPrice is the sum of unit price times quantity over all lines.
func (ls Lines) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, l := range ls {
		total = total.Add(l.Subtotal())
	}
	return total
}

// TotalSavings is the sum of (original - unit price) times quantity over discounted lines.
func (ls Lines) TotalSavings() decimal.Decimal {
	total := decimal.Zero
	for _, l := range ls {
		total = total.Add(l.Savings())
	}
	return total
}

// Store owns the lines of one shopper's cart. Lines keep insertion order and
// there is at most one line per product. A Store is not safe for concurrent use;
// the owner serializes access.
//
// Every operation is total: out-of-range input is clamped or ignored, and the
// only rejection is ErrCompositionLimitExceeded.
type Store struct {
	lines Lines
}

func NewStore() *Store {
	return &Store{}
}

// AddItem adds one unit of the product. An existing line grows by one up to its
// stock ceiling. A new line is refused once the cart holds MaxDistinctProducts
// products. Products with no stock are ignored.
func (s *Store) AddItem(p pricing.PricedProduct) error {
	if i := s.index(p.ID); i >= 0 {
		line := &s.lines[i]
		line.Quantity = min(line.Quantity+1, line.StockCeiling)
		return nil
	}

	if len(s.lines) >= MaxDistinctProducts {
		return ErrCompositionLimitExceeded
	}
	if p.Stock < 1 {
		return nil
	}

	line := Line{
		ProductID:    p.ID,
		Name:         p.Name,
		UnitPrice:    p.EffectivePrice,
		HasDiscount:  p.HasDiscount,
		Quantity:     1,
		ImageURL:     p.ImageURL,
		Category:     p.Category,
		StockCeiling: p.Stock,
	}
	if p.HasDiscount {
		original := p.OriginalPrice
		line.OriginalPrice = &original
	}
	s.lines = append(s.lines, line)
	return nil
}

// UpdateQuantity sets the quantity of a line, capped at its stock ceiling.
// Quantities below 1 are ignored: removal goes through RemoveItem.
func (s *Store) UpdateQuantity(productID string, quantity int) {
	if quantity < 1 {
		return
	}
	if i := s.index(productID); i >= 0 {
		s.lines[i].Quantity = min(quantity, s.lines[i].StockCeiling)
	}
}

// RemoveItem deletes the line for productID if there is one.
func (s *Store) RemoveItem(productID string) {
	if i := s.index(productID); i >= 0 {
		s.lines = append(s.lines[:i], s.lines[i+1:]...)
	}
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.lines = nil
}

// Lines returns a copy of the cart lines. Mutating the copy does not affect the store.
func (s *Store) Lines() Lines {
	out := make(Lines, len(s.lines))
	for i, l := range s.lines {
		if l.OriginalPrice != nil {
			original := *l.OriginalPrice
			l.OriginalPrice = &original
		}
		out[i] = l
	}
	return out
}

// Line returns the line for productID.
func (s *Store) Line(productID string) (Line, bool) {
	if i := s.index(productID); i >= 0 {
		return s.lines[i], true
	}
	return Line{}, false
}

// Len is the number of distinct products in the cart.
func (s *Store) Len() int {
	return len(s.lines)
}

func (s *Store) IsEmpty() bool {
	return len(s.lines) == 0
}

func (s *Store) TotalItemCount() int {
	return s.lines.TotalItemCount()
}

func (s *Store) TotalPrice() decimal.Decimal {
	return s.lines.TotalPrice()
}

func (s *Store) TotalSavings() decimal.Decimal {
	return s.lines.TotalSavings()
}

func (s *Store) index(productID string) int {
	for i := range s.lines {
		if s.lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

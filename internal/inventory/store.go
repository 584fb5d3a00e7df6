package inventory

import (
	"errors"
	"sync"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
)

// StockInfo is the available quantity of one product.
type StockInfo struct {
	ProductID string `json:"productId"`
	Available int    `json:"available"`
}

// Store defines the inventory storage operations.
type Store interface {
	// GetStock returns stock for the known ids among productIDs, in request order.
	GetStock(productIDs []string) ([]StockInfo, error)

	// Decrement removes quantity units of a product. It fails without changing
	// anything when the product is unknown or short.
	Decrement(productID string, quantity int) (StockInfo, error)

	// SetStock sets the stock level for a product (used for initialization)
	SetStock(productID string, quantity int) error
}

// MemoryStore implements Store with in-memory storage
type MemoryStore struct {
	mu     sync.RWMutex
	stocks map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{stocks: make(map[string]int)}
}

func (s *MemoryStore) GetStock(productIDs []string) ([]StockInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]StockInfo, 0, len(productIDs))
	for _, id := range productIDs {
		if qty, exists := s.stocks[id]; exists {
			result = append(result, StockInfo{ProductID: id, Available: qty})
		}
	}
	return result, nil
}

func (s *MemoryStore) Decrement(productID string, quantity int) (StockInfo, error) {
	if quantity < 1 {
		return StockInfo{}, ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	qty, exists := s.stocks[productID]
	if !exists {
		return StockInfo{}, ErrProductNotFound
	}
	if qty < quantity {
		return StockInfo{ProductID: productID, Available: qty}, ErrInsufficientStock
	}

	s.stocks[productID] = qty - quantity
	return StockInfo{ProductID: productID, Available: qty - quantity}, nil
}

func (s *MemoryStore) SetStock(productID string, quantity int) error {
	if quantity < 0 {
		return ErrInvalidQuantity
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stocks[productID] = quantity
	return nil
}

package checkout

import (
	"context"
	"sync"

	"github.com/fjod/storefront/internal/cart"
)

type MockOrderSubmitter struct {
	mu        sync.Mutex
	Reference string
	Err       error
	Panic     any
	Requests  []*Request
}

func (m *MockOrderSubmitter) SubmitOrder(_ context.Context, req *Request) (*Confirmation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, req)
	if m.Panic != nil {
		panic(m.Panic)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return &Confirmation{OrderReference: m.Reference}, nil
}

func (m *MockOrderSubmitter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

type decrementCall struct {
	ProductID string
	Quantity  int
}

type MockStockDecrementer struct {
	mu     sync.Mutex
	Errs   map[string]error // keyed by product id
	Panics map[string]any
	Calls  []decrementCall
}

func (m *MockStockDecrementer) DecrementStock(_ context.Context, productID string, quantity int) error {
	m.mu.Lock()
	m.Calls = append(m.Calls, decrementCall{ProductID: productID, Quantity: quantity})
	err := m.Errs[productID]
	p := m.Panics[productID]
	m.mu.Unlock()

	if p != nil {
		panic(p)
	}
	return err
}

func (m *MockStockDecrementer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

type MockFailureRecorder struct {
	mu       sync.Mutex
	Err      error
	Failures []DecrementFailure
}

func (m *MockFailureRecorder) RecordDecrementFailure(_ context.Context, f DecrementFailure) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Failures = append(m.Failures, f)
	return m.Err
}

// hookCart wraps a cart.Store and lets a test act between the snapshot and the
// clear, standing in for a shopper who keeps editing during checkout.
type hookCart struct {
	*cart.Store
	afterSnapshot func(*cart.Store)
	cleared       int
}

func (h *hookCart) Lines() cart.Lines {
	lines := h.Store.Lines()
	if h.afterSnapshot != nil {
		h.afterSnapshot(h.Store)
	}
	return lines
}

func (h *hookCart) Clear() {
	h.cleared++
	h.Store.Clear()
}

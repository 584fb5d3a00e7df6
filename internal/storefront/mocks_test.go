package storefront

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/fjod/storefront/internal/cache"
	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/domain"
)

type MockCatalogSource struct {
	ProductList []domain.Product
	OfferList   []domain.Offer
	Err         error
	Release     chan struct{}
	calls       atomic.Int32
}

func (m *MockCatalogSource) Products(ctx context.Context) ([]domain.Product, error) {
	m.calls.Add(1)
	if m.Release != nil {
		<-m.Release
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.ProductList, nil
}

func (m *MockCatalogSource) Offers(ctx context.Context) ([]domain.Offer, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.OfferList, nil
}

func (m *MockCatalogSource) CallCount() int {
	return int(m.calls.Load())
}

type MockStockSource struct {
	mu     sync.Mutex
	Levels map[string]int
	Err    error
	Calls  [][]string
}

func (m *MockStockSource) Stock(ctx context.Context, productIDs []string) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, append([]string(nil), productIDs...))
	if m.Err != nil {
		return nil, m.Err
	}
	out := make(map[string]int, len(productIDs))
	for _, id := range productIDs {
		if n, ok := m.Levels[id]; ok {
			out[id] = n
		}
	}
	return out, nil
}

type MockSnapshotCache struct {
	mu      sync.Mutex
	snap    *cache.Snapshot
	GetErr  error
	SetErr  error
	sets    int
	deletes int
}

func (m *MockSnapshotCache) Get(ctx context.Context) (*cache.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	if m.snap == nil {
		return nil, cache.ErrCacheMiss
	}
	return m.snap, nil
}

func (m *MockSnapshotCache) Set(ctx context.Context, s *cache.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	if m.SetErr != nil {
		return m.SetErr
	}
	m.snap = s
	return nil
}

func (m *MockSnapshotCache) Delete(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	m.snap = nil
	return nil
}

type MockOrderSubmitter struct {
	mu        sync.Mutex
	Reference string
	Err       error
	Panic     bool
	Requests  []*checkout.Request
	CtxErrs   []error
}

func (m *MockOrderSubmitter) SubmitOrder(ctx context.Context, req *checkout.Request) (*checkout.Confirmation, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.CtxErrs = append(m.CtxErrs, ctx.Err())
	m.mu.Unlock()

	if m.Panic {
		panic("orders connection reset")
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return &checkout.Confirmation{OrderReference: m.Reference}, nil
}

func (m *MockOrderSubmitter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

type MockStockDecrementer struct {
	mu    sync.Mutex
	Errs  map[string]error
	Calls map[string]int
}

func (m *MockStockDecrementer) DecrementStock(ctx context.Context, productID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Calls == nil {
		m.Calls = map[string]int{}
	}
	m.Calls[productID] = quantity
	return m.Errs[productID]
}

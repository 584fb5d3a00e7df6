package storefront

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/storefront/internal/cache"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/pricing"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var ErrProductNotFound = errors.New("product not found")

const snapshotFlight = "catalog-snapshot"

type CatalogSource interface {
	Products(ctx context.Context) ([]domain.Product, error)
	Offers(ctx context.Context) ([]domain.Offer, error)
}

type StockSource interface {
	Stock(ctx context.Context, productIDs []string) (map[string]int, error)
}

// CatalogService serves priced products from a cached catalog snapshot.
// Stock is not cached; it is read from inventory on every call.
type CatalogService struct {
	source CatalogSource
	stock  StockSource
	cache  cache.SnapshotCache
	sfg    singleflight.Group
	logger *zap.Logger
	now    func() time.Time
}

func NewCatalogService(source CatalogSource, stock StockSource, snapshots cache.SnapshotCache, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		source: source,
		stock:  stock,
		cache:  snapshots,
		logger: logger,
		now:    time.Now,
	}
}

// Snapshot returns the cached products and offers, fetching them from the
// catalog on a miss. Concurrent misses share one fetch.
func (s *CatalogService) Snapshot(ctx context.Context) (*cache.Snapshot, error) {
	v, err, _ := s.sfg.Do(snapshotFlight, func() (any, error) {
		snap, err := s.cache.Get(ctx)
		if err == nil {
			return snap, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("catalog cache get failed", zap.Error(err))
		}

		products, err := s.source.Products(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch products: %w", err)
		}
		offers, err := s.source.Offers(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch offers: %w", err)
		}

		snap = &cache.Snapshot{Products: products, Offers: offers, TakenAt: s.now().UTC()}
		if err := s.cache.Set(ctx, snap); err != nil {
			s.logger.Warn("catalog cache set failed", zap.Error(err))
		}
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*cache.Snapshot), nil
}

// Invalidate drops the cached snapshot so the next read refetches it.
func (s *CatalogService) Invalidate(ctx context.Context) error {
	return s.cache.Delete(ctx)
}

// PricedProducts returns every product with current stock and its effective price.
func (s *CatalogService) PricedProducts(ctx context.Context) ([]pricing.PricedProduct, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	products, err := s.withStock(ctx, snap.Products)
	if err != nil {
		return nil, err
	}
	return pricing.ResolveAll(products, snap.Offers), nil
}

// Product prices a single product with its current stock.
func (s *CatalogService) Product(ctx context.Context, id string) (pricing.PricedProduct, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return pricing.PricedProduct{}, err
	}

	for _, p := range snap.Products {
		if p.ID != id {
			continue
		}
		withStock, err := s.withStock(ctx, []domain.Product{p})
		if err != nil {
			return pricing.PricedProduct{}, err
		}
		return pricing.Resolve(withStock[0], snap.Offers), nil
	}
	return pricing.PricedProduct{}, fmt.Errorf("%w: %s", ErrProductNotFound, id)
}

// ActiveOffers lists the offers currently in effect, in catalog order.
func (s *CatalogService) ActiveOffers(ctx context.Context) ([]domain.Offer, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	active := make([]domain.Offer, 0, len(snap.Offers))
	for _, o := range snap.Offers {
		if o.IsActive() {
			active = append(active, o)
		}
	}
	return active, nil
}

// withStock copies products and sets Stock from inventory. Products inventory
// does not know are reported with zero stock.
func (s *CatalogService) withStock(ctx context.Context, products []domain.Product) ([]domain.Product, error) {
	ids := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}

	stock, err := s.stock.Stock(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch stock: %w", err)
	}

	out := make([]domain.Product, len(products))
	for i, p := range products {
		p.Stock = stock[p.ID]
		out[i] = p
	}
	return out, nil
}

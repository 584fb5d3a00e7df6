package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/domain"
	"go.uber.org/zap"
)

type CatalogClient struct {
	*base
}

func NewCatalogClient(cfg Config, logger *zap.Logger) *CatalogClient {
	return &CatalogClient{base: newBase("catalog", cfg, logger)}
}

func (c *CatalogClient) Products(ctx context.Context) ([]domain.Product, error) {
	var resp struct {
		Products []domain.Product `json:"products"`
	}
	if err := c.do(ctx, http.MethodGet, "/products", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Products, nil
}

func (c *CatalogClient) Offers(ctx context.Context) ([]domain.Offer, error) {
	var resp struct {
		Offers []domain.Offer `json:"offers"`
	}
	if err := c.do(ctx, http.MethodGet, "/offers", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Offers, nil
}

type InventoryClient struct {
	*base
}

func NewInventoryClient(cfg Config, logger *zap.Logger) *InventoryClient {
	return &InventoryClient{base: newBase("inventory", cfg, logger)}
}

// Stock returns available quantity by product id. Unknown ids are absent.
func (c *InventoryClient) Stock(ctx context.Context, productIDs []string) (map[string]int, error) {
	out := make(map[string]int, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	var resp struct {
		Stocks []struct {
			ProductID string `json:"productId"`
			Available int    `json:"available"`
		} `json:"stocks"`
	}
	path := "/stock?ids=" + url.QueryEscape(strings.Join(productIDs, ","))
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	for _, s := range resp.Stocks {
		out[s.ProductID] = s.Available
	}
	return out, nil
}

func (c *InventoryClient) DecrementStock(ctx context.Context, productID string, quantity int) error {
	req := struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	}{productID, quantity}
	return c.do(ctx, http.MethodPost, "/stock/decrement", req, nil)
}

type OrdersClient struct {
	*base
}

func NewOrdersClient(cfg Config, logger *zap.Logger) *OrdersClient {
	return &OrdersClient{base: newBase("orders", cfg, logger)}
}

// SubmitOrder posts the order. A rejection comes back as *StatusError with the
// service's payload.
func (c *OrdersClient) SubmitOrder(ctx context.Context, req *checkout.Request) (*checkout.Confirmation, error) {
	var conf checkout.Confirmation
	if err := c.do(ctx, http.MethodPost, "/orders", req, &conf); err != nil {
		return nil, err
	}
	return &conf, nil
}

package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fjod/storefront/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockRepository struct {
	Products []domain.Product
	Offers   []domain.Offer
	Err      error
}

func (m *MockRepository) GetAllProducts(context.Context) ([]domain.Product, error) {
	return m.Products, m.Err
}

func (m *MockRepository) GetProduct(_ context.Context, id string) (domain.Product, error) {
	if m.Err != nil {
		return domain.Product{}, m.Err
	}
	for _, p := range m.Products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, ErrProductNotFound
}

func (m *MockRepository) GetOffers(context.Context) ([]domain.Offer, error) {
	return m.Offers, m.Err
}

func (m *MockRepository) Close() error { return nil }

func newRouter(repo RepoInterface) *chi.Mux {
	r := chi.NewRouter()
	NewHandler(repo, zap.NewNop()).Routes(r)
	return r
}

func TestHandler_GetProducts(t *testing.T) {
	repo := &MockRepository{Products: []domain.Product{
		{ID: "1", Name: "Canvas Tote Bag", Price: decimal.RequireFromString("49.99")},
	}}

	rec := httptest.NewRecorder()
	newRouter(repo).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ProductsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Products, 1)
	assert.Equal(t, "49.99", resp.Products[0].Price.StringFixed(2))
}

func TestHandler_GetProducts_Empty(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(&MockRepository{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"products":[]}`, rec.Body.String())
}

func TestHandler_GetProduct(t *testing.T) {
	repo := &MockRepository{Products: []domain.Product{{ID: "7", Name: "Casual Messenger"}}}
	r := newRouter(repo)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/7", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Casual Messenger")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/99", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_GetOffers(t *testing.T) {
	repo := &MockRepository{Offers: []domain.Offer{{ID: "1", Code: "NEWYEAR25", Mechanism: domain.MechanismPercentage}}}

	rec := httptest.NewRecorder()
	newRouter(repo).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/offers", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp OffersResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Offers, 1)
	assert.Equal(t, domain.MechanismPercentage, resp.Offers[0].Mechanism)
}

func TestHandler_RepositoryError(t *testing.T) {
	r := newRouter(&MockRepository{Err: errors.New("disk I/O error")})

	for _, path := range []string{"/products", "/products/1", "/offers"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code, path)
	}
}

package catalog

import (
	"errors"
	"net/http"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/httpapi"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	repo   RepoInterface
	logger *zap.Logger
}

func NewHandler(repo RepoInterface, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

type ProductsResponse struct {
	Products []domain.Product `json:"products"`
}

type OffersResponse struct {
	Offers []domain.Offer `json:"offers"`
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/products", h.GetProducts)
	r.Get("/products/{id}", h.GetProduct)
	r.Get("/offers", h.GetOffers)
}

func (h *Handler) GetProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.repo.GetAllProducts(r.Context())
	if err != nil {
		h.logger.Error("failed to get products", zap.Error(err))
		httpapi.RespondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	httpapi.RespondJSON(w, http.StatusOK, ProductsResponse{Products: products})
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.repo.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, ErrProductNotFound) {
		httpapi.RespondError(w, http.StatusNotFound, "not_found", err.Error())
		return
	}
	if err != nil {
		h.logger.Error("failed to get product", zap.Error(err))
		httpapi.RespondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	httpapi.RespondJSON(w, http.StatusOK, p)
}

func (h *Handler) GetOffers(w http.ResponseWriter, r *http.Request) {
	offers, err := h.repo.GetOffers(r.Context())
	if err != nil {
		h.logger.Error("failed to get offers", zap.Error(err))
		httpapi.RespondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	if offers == nil {
		offers = []domain.Offer{}
	}
	httpapi.RespondJSON(w, http.StatusOK, OffersResponse{Offers: offers})
}

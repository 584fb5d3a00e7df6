package reconcile

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/fjod/storefront/internal/httpapi"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const defaultPendingLimit = 100

// Queue is the operator view of the reconciliation log.
type Queue interface {
	Pending(ctx context.Context, limit int64) ([]Entry, error)
	Resolve(ctx context.Context, id primitive.ObjectID) error
}

type Handler struct {
	queue  Queue
	logger *zap.Logger
}

func NewHandler(queue Queue, logger *zap.Logger) *Handler {
	return &Handler{queue: queue, logger: logger}
}

type PendingResponse struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/reconciliation", h.ListPending)
	r.Post("/reconciliation/{id}/resolve", h.Resolve)
}

func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	limit := int64(defaultPendingLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 {
			httpapi.RespondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := h.queue.Pending(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list reconciliation entries", zap.Error(err))
		httpapi.RespondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	httpapi.RespondJSON(w, http.StatusOK, PendingResponse{Entries: entries, Total: len(entries)})
}

func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_id", "id must be an ObjectID")
		return
	}

	err = h.queue.Resolve(r.Context(), id)
	switch {
	case errors.Is(err, ErrEntryNotFound):
		httpapi.RespondError(w, http.StatusNotFound, "not_found", err.Error())
		return
	case err != nil:
		h.logger.Error("failed to resolve reconciliation entry", zap.String("id", id.Hex()), zap.Error(err))
		httpapi.RespondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	h.logger.Info("reconciliation entry resolved", zap.String("id", id.Hex()))
	w.WriteHeader(http.StatusNoContent)
}

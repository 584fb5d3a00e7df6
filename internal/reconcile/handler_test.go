package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var _ Queue = (*MongoRecorder)(nil)

type MockQueue struct {
	Entries    []Entry
	Err        error
	ResolveErr error
	Limit      int64
	Resolved   []primitive.ObjectID
}

func (m *MockQueue) Pending(ctx context.Context, limit int64) ([]Entry, error) {
	m.Limit = limit
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Entries, nil
}

func (m *MockQueue) Resolve(ctx context.Context, id primitive.ObjectID) error {
	if m.ResolveErr != nil {
		return m.ResolveErr
	}
	m.Resolved = append(m.Resolved, id)
	return nil
}

func newTestRouter(q Queue) http.Handler {
	r := chi.NewRouter()
	NewHandler(q, zap.NewNop()).Routes(r)
	return r
}

func TestListPending(t *testing.T) {
	q := &MockQueue{Entries: []Entry{{
		ID: primitive.NewObjectID(), OrderID: "ORD-1", ProductID: "2", Quantity: 3,
		Reason: "timeout", FailedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}}}

	w := httptest.NewRecorder()
	newTestRouter(q).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reconciliation", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(defaultPendingLimit), q.Limit)
	var resp PendingResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, "ORD-1", resp.Entries[0].OrderID)
}

func TestListPending_Limit(t *testing.T) {
	q := &MockQueue{}
	w := httptest.NewRecorder()
	newTestRouter(q).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reconciliation?limit=5", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(5), q.Limit)

	for _, bad := range []string{"0", "-1", "ten"} {
		w := httptest.NewRecorder()
		newTestRouter(q).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reconciliation?limit="+bad, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, bad)
	}
}

func TestListPending_StoreError(t *testing.T) {
	w := httptest.NewRecorder()
	newTestRouter(&MockQueue{Err: errors.New("mongo down")}).
		ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reconciliation", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestResolveEntry(t *testing.T) {
	id := primitive.NewObjectID()
	q := &MockQueue{}

	w := httptest.NewRecorder()
	newTestRouter(q).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/reconciliation/"+id.Hex()+"/resolve", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []primitive.ObjectID{id}, q.Resolved)
}

func TestResolveEntry_Errors(t *testing.T) {
	tests := []struct {
		name string
		id   string
		err  error
		want int
	}{
		{"bad id", "not-an-id", nil, http.StatusBadRequest},
		{"unknown", primitive.NewObjectID().Hex(), ErrEntryNotFound, http.StatusNotFound},
		{"store error", primitive.NewObjectID().Hex(), errors.New("mongo down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			newTestRouter(&MockQueue{ResolveErr: tt.err}).
				ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/reconciliation/"+tt.id+"/resolve", nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

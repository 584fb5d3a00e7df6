package storefront

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fjod/storefront/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func customerEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(CustomerFromContext(r.Context())))
	})
}

func TestAuthMiddleware(t *testing.T) {
	valid := customerToken(t, "customer-7")
	expired := signToken(t, testSecret, jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "customer-7",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	})
	wrongSecret := signToken(t, []byte("other"), jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "customer-7"})
	wrongAlg := signToken(t, testSecret, jwt.SigningMethodHS512, jwt.RegisteredClaims{Subject: "customer-7"})
	noSubject := signToken(t, testSecret, jwt.SigningMethodHS256, jwt.RegisteredClaims{})

	tests := []struct {
		name     string
		header   string
		status   int
		customer string
	}{
		{"guest", "", http.StatusOK, ""},
		{"valid token", "Bearer " + valid, http.StatusOK, "customer-7"},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, ""},
		{"wrong secret", "Bearer " + wrongSecret, http.StatusUnauthorized, ""},
		{"wrong algorithm", "Bearer " + wrongAlg, http.StatusUnauthorized, ""},
		{"no subject", "Bearer " + noSubject, http.StatusUnauthorized, ""},
		{"not bearer", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, ""},
		{"empty bearer", "Bearer ", http.StatusUnauthorized, ""},
	}

	h := AuthMiddleware(testSecret)(customerEcho())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.customer, rec.Body.String())
			}
		})
	}
}

func TestSessionMiddleware(t *testing.T) {
	sessions := session.NewRegistry(time.Hour, time.Hour, zap.NewNop())
	t.Cleanup(func() { _ = sessions.Close() })

	var seen *session.Session
	h := SessionMiddleware(sessions)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = sessionFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	issued := rec.Header().Get(SessionHeader)
	require.NotEmpty(t, issued)
	require.NotNil(t, seen)
	assert.Equal(t, issued, seen.ID)
	first := seen

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(SessionHeader, issued)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, issued, rec.Header().Get(SessionHeader))
	assert.Same(t, first, seen)
	assert.Equal(t, 1, sessions.Len())
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := RequestLogger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/api/v1/cart", fields["path"])
	assert.EqualValues(t, http.StatusTeapot, fields["status"])
}

func TestRouter_CORSPreflight(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/cart/items", nil)
	req.Header.Set("Origin", "https://shop.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type, X-Session-ID")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, "https://shop.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, 0, s.sessions.Len())
}

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/health", "/api/v1/health"} {
		rec := s.do(http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

type pingAdmin struct{}

func (pingAdmin) Routes(r chi.Router) {
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("pong"))
	})
}

func TestRouter_AdminRequiresOperatorAudience(t *testing.T) {
	s := newTestServerWithAdmin(t, pingAdmin{})

	operator := signToken(t, testSecret, jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:  "ops-1",
		Audience: jwt.ClaimStrings{OperatorAudience},
	})
	otherAudience := signToken(t, testSecret, jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:  "ops-1",
		Audience: jwt.ClaimStrings{"storefront"},
	})

	tests := []struct {
		name   string
		opts   []reqOpt
		status int
	}{
		{"operator", []reqOpt{withToken(operator)}, http.StatusOK},
		{"no token", nil, http.StatusUnauthorized},
		{"customer token", []reqOpt{withToken(customerToken(t, "customer-7"))}, http.StatusUnauthorized},
		{"other audience", []reqOpt{withToken(otherAudience)}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodGet, "/api/v1/admin/ping", "", tt.opts...)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestRouter_NoAdminRoutesByDefault(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/v1/admin/ping", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

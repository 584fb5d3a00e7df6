package storefront

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/storefront/internal/httpapi"
	"github.com/fjod/storefront/internal/logger"
	"github.com/fjod/storefront/internal/session"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	SessionHeader = "X-Session-ID"

	// OperatorAudience is the aud claim required on /api/v1/admin routes.
	OperatorAudience = "storefront-operator"
)

type ctxKey int

const (
	sessionKey ctxKey = iota
	customerKey
)

var (
	errMissingSubject  = errors.New("token has no subject")
	errMalformedHeader = errors.New("authorization header must be a bearer token")
)

// SessionMiddleware attaches the shopper's session to the request, creating
// one when the header is absent or unknown. The effective id is echoed back.
func SessionMiddleware(sessions *session.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := sessions.Get(r.Header.Get(SessionHeader))
			w.Header().Set(SessionHeader, s.ID)
			ctx := context.WithValue(r.Context(), sessionKey, s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionFromContext(ctx context.Context) *session.Session {
	s, _ := ctx.Value(sessionKey).(*session.Session)
	return s
}

// AuthMiddleware reads an optional HS256 bearer token and puts its subject in
// the context as the customer id. Requests without a token pass through as
// guests; a token that fails validation is rejected.
func AuthMiddleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			customerID, err := subjectFromHeader(header, secret)
			if err != nil {
				httpapi.RespondError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), customerKey, customerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OperatorMiddleware admits only bearer tokens issued for the operator
// audience. There is no guest pass-through.
func OperatorMiddleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := subjectFromHeader(r.Header.Get("Authorization"), secret, jwt.WithAudience(OperatorAudience)); err != nil {
				httpapi.RespondError(w, http.StatusUnauthorized, "unauthorized", "operator token required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func subjectFromHeader(header string, secret []byte, opts ...jwt.ParserOption) (string, error) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return "", errMalformedHeader
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(strings.TrimSpace(raw), &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))...)
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errMissingSubject
	}
	return claims.Subject, nil
}

// CustomerFromContext returns the authenticated customer id, or "" for a guest.
func CustomerFromContext(ctx context.Context) string {
	id, _ := ctx.Value(customerKey).(string)
	return id
}

// RequestLogger logs one line per request with the trace ids of its span.
func RequestLogger(l *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			logger.FromContext(r.Context(), l).Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

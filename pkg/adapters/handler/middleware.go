package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/wadjakorntonsri/go-link-redirector/pkg/core/domain"
	"github.com/wadjakorntonsri/go-link-redirector/pkg/logging"
	"github.com/wadjakorntonsri/go-link-redirector/pkg/ports"
)

const (
	// APIKeyHeader carries the shared secret on protected routes.
	APIKeyHeader = "X-Api-Key"

	// RequestIDHeader is echoed back on every response.
	RequestIDHeader = "X-Request-Id"
)

type Middleware struct {
	auth    ports.AuthService
	metrics ports.Metrics
	logger  *slog.Logger
}

func NewMiddleware(auth ports.AuthService, m ports.Metrics, logger *slog.Logger) *Middleware {
	return &Middleware{auth: auth, metrics: m, logger: logger}
}

// RequireAPIKey rejects requests without a valid x-api-key before they reach
// next. A store failure while loading the settings is a 500, not a 401.
func (m *Middleware) RequireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		values, ok := r.Header[APIKeyHeader]
		if !ok || len(values) == 0 {
			m.reject(w, r, "api key header not found")
			return
		}

		err := m.auth.Authenticate(context.WithoutCancel(r.Context()), values[0])
		switch {
		case err == nil:
			next.ServeHTTP(w, r)
		case errors.Is(err, domain.ErrUnauthorized):
			m.reject(w, r, "api key does not match the stored one")
		default:
			respondError(w, r, err, m.logger, m.metrics)
		}
	})
}

func (m *Middleware) reject(w http.ResponseWriter, r *http.Request, reason string) {
	route := routeOf(r)
	logging.FromContext(r.Context(), m.logger).Warn("request not authorized",
		"route", route,
		"reason", reason)
	m.metrics.UnauthenticatedCall(route)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}

// RequestID tags the request context and the response with an id, reusing
// the one sent by the client when present.
func (m *Middleware) RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}

// AccessLog logs one line per request.
func (m *Middleware) AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		logging.FromContext(r.Context(), m.logger).Debug("request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// routeOf prefers the matched mux pattern so the metric label stays bounded.
func routeOf(r *http.Request) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	return r.URL.Path
}

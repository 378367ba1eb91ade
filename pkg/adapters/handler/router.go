package handler

import (
	"log/slog"
	"net/http"

	"github.com/wadjakorntonsri/go-link-redirector/pkg/ports"
)

// Dependencies wires the router.
type Dependencies struct {
	Links          ports.LinkService
	Auth           ports.AuthService
	Metrics        ports.Metrics
	MetricsHandler http.Handler // optional, served on GET /metrics
	Logger         *slog.Logger
}

// Router is the application http.Handler.
type Router struct {
	http.Handler
	links *HTTPHandler
}

// NewRouter creates and configures the main application router
func NewRouter(deps Dependencies) *Router {
	h := NewHTTPHandler(deps.Links, deps.Metrics, deps.Logger)
	mw := NewMiddleware(deps.Auth, deps.Metrics, deps.Logger)

	protected := func(fn http.HandlerFunc) http.Handler {
		return mw.RequireAPIKey(fn)
	}

	mux := http.NewServeMux()

	// Public Routes
	mux.HandleFunc("GET /health", h.Health)
	if deps.MetricsHandler != nil {
		mux.Handle("GET /metrics", deps.MetricsHandler)
	}
	// Also serves HEAD, which records a statistic like GET.
	mux.HandleFunc("GET /{id}", h.Redirect)

	// Protected Routes
	mux.Handle("POST /create", protected(h.Create))
	mux.Handle("PUT /{id}", protected(h.Update))
	mux.Handle("PATCH /{id}", protected(h.Update))
	mux.Handle("GET /{id}/statistics", protected(h.Statistics))

	return &Router{
		Handler: mw.RequestID(mw.AccessLog(mux)),
		links:   h,
	}
}

// Wait blocks until pending statistic writes have finished.
func (r *Router) Wait() {
	r.links.Wait()
}

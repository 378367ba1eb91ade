package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/wadjakorntonsri/go-link-redirector/pkg/ports"
)

// CacheControl lets shared and private caches keep a redirect for five minutes.
const CacheControl = "public, max-age=300, s-maxage=300, stale-while-revalidate=300, stale-if-error=300"

type HTTPHandler struct {
	service ports.LinkService
	metrics ports.Metrics
	logger  *slog.Logger

	pending sync.WaitGroup
}

func NewHTTPHandler(service ports.LinkService, m ports.Metrics, logger *slog.Logger) *HTTPHandler {
	return &HTTPHandler{service: service, metrics: m, logger: logger}
}

// LinkRequest payload for create and update
type LinkRequest struct {
	TargetURL string `json:"targetUrl"`
}

// Create Link
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req LinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	link, err := h.service.Create(context.WithoutCancel(r.Context()), req.TargetURL)
	if err != nil {
		respondError(w, r, err, h.logger, h.metrics)
		return
	}

	writeJSON(w, http.StatusOK, link)
}

// Update Link
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req LinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	link, err := h.service.Update(context.WithoutCancel(r.Context()), r.PathValue("id"), req.TargetURL)
	if err != nil {
		respondError(w, r, err, h.logger, h.metrics)
		return
	}

	writeJSON(w, http.StatusOK, link)
}

// Redirect answers with a 307 to the target URL and records the usage in a
// detached goroutine. The response never waits for that write.
func (h *HTTPHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ctx := context.WithoutCancel(r.Context())

	link, err := h.service.Resolve(ctx, id)
	if err != nil {
		respondError(w, r, err, h.logger, h.metrics)
		return
	}

	referer := r.Referer()
	userAgent := r.UserAgent()

	h.pending.Add(1)
	go func() {
		defer h.pending.Done()
		h.service.RecordStatistic(ctx, link.ID, referer, userAgent)
	}()

	w.Header().Set("Cache-Control", CacheControl)
	http.Redirect(w, r, link.TargetURL, http.StatusTemporaryRedirect)
}

// Statistics of a link grouped by referer and user agent
func (h *HTTPHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Statistics(context.WithoutCancel(r.Context()), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err, h.logger, h.metrics)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// Health check
func (h *HTTPHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Service is healthy"))
}

// Wait blocks until every statistic write started by Redirect has finished.
func (h *HTTPHandler) Wait() {
	h.pending.Wait()
}

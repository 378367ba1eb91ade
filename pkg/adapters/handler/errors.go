package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/wadjakorntonsri/go-link-redirector/pkg/core/domain"
	"github.com/wadjakorntonsri/go-link-redirector/pkg/logging"
	"github.com/wadjakorntonsri/go-link-redirector/pkg/ports"
)

// respondError maps err to a status code. Internal errors are logged and
// counted; their display string is the response body.
func respondError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger, m ports.Metrics) {
	switch {
	case errors.Is(err, domain.ErrInvalidURL):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrUnauthorized):
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	case errors.Is(err, domain.ErrLinkNotFound):
		http.Error(w, "Not Found", http.StatusNotFound)
	default:
		class := domain.ErrorClass(err)
		logging.FromContext(r.Context(), logger).Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"class", class,
			"error", err)
		m.RequestError(class)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Package metrics exposes the service counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wadjakorntonsri/go-link-redirector/pkg/ports"
)

type Prometheus struct {
	registry        *prometheus.Registry
	unauthenticated *prometheus.CounterVec
	requestErrors   *prometheus.CounterVec
}

// NewPrometheus registers the counters on a private registry, together with
// the Go runtime and process collectors.
func NewPrometheus() *Prometheus {
	reg := prometheus.NewRegistry()
	p := &Prometheus{
		registry: reg,
		unauthenticated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "unauthenticated_calls_count",
			Help: "Requests rejected for a missing or wrong API key.",
		}, []string{"route"}),
		requestErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "request_error",
			Help: "Requests answered with an internal error.",
		}, []string{"error"}),
	}
	reg.MustRegister(
		p.unauthenticated,
		p.requestErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

func (p *Prometheus) UnauthenticatedCall(route string) {
	p.unauthenticated.WithLabelValues(route).Inc()
}

func (p *Prometheus) RequestError(class string) {
	p.requestErrors.WithLabelValues(class).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

var _ ports.Metrics = (*Prometheus)(nil)

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	UpstreamRequests *prometheus.CounterVec
	UpstreamLatency  *prometheus.HistogramVec
	MetadataDegraded prometheus.Counter
	ProgressWrites   *prometheus.CounterVec
	OrdersCompleted  prometheus.Counter
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	upstreamRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "woocommerce_requests_total",
		Help: "WooCommerce API calls by operation and outcome.",
	}, []string{"op", "outcome"})
	upstreamLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "woocommerce_request_seconds",
		Help:    "WooCommerce API call latency by operation.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	degraded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_metadata_degraded_total",
		Help: "Order listings served without product metadata.",
	})
	writes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "progress_writes_total",
		Help: "Item progress upserts by outcome.",
	}, []string{"outcome"})
	completed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_completed_total",
		Help: "Orders moved to completed in the store.",
	})

	r.MustRegister(upstreamRequests, upstreamLatency, degraded, writes, completed)
	return &Registry{
		reg:              r,
		UpstreamRequests: upstreamRequests,
		UpstreamLatency:  upstreamLatency,
		MetadataDegraded: degraded,
		ProgressWrites:   writes,
		OrdersCompleted:  completed,
	}
}

// ObserveUpstream records one finished WooCommerce call. Safe on a nil Registry.
func (r *Registry) ObserveUpstream(op, outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.UpstreamRequests.WithLabelValues(op, outcome).Inc()
	r.UpstreamLatency.WithLabelValues(op).Observe(elapsed.Seconds())
}

func (r *Registry) Degraded() {
	if r == nil {
		return
	}
	r.MetadataDegraded.Inc()
}

func (r *Registry) ProgressWrite(outcome string) {
	if r == nil {
		return
	}
	r.ProgressWrites.WithLabelValues(outcome).Inc()
}

func (r *Registry) Completed() {
	if r == nil {
		return
	}
	r.OrdersCompleted.Inc()
}

func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

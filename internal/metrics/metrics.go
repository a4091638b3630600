// Package metrics registers the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	OffersComputed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offers_computed_total",
			Help: "Total number of offers computed per strategy",
		},
		[]string{"strategy"},
	)

	WebhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Total number of subscription webhook events by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)

// ObserveOffer counts one computed offer.
func ObserveOffer(strategy string) {
	OffersComputed.WithLabelValues(strategy).Inc()
}

// ObserveWebhook counts one webhook event.
func ObserveWebhook(action, outcome string) {
	WebhookEvents.WithLabelValues(action, outcome).Inc()
}

// Instrument wraps next so its latency is recorded under route.
func Instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next(w, r)
		RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

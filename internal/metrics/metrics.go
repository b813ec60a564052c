// Package metrics holds the Prometheus collectors shared by the gateways,
// the city feed and the view registry. A nil *Metrics is valid and records nothing.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cityweather"

// Metrics groups the application collectors
type Metrics struct {
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	feedPages        *prometheus.CounterVec
	activeViews      prometheus.Gauge
}

// New registers the collectors with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		upstreamRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Requests sent to upstream gateways by outcome.",
		}, []string{"gateway", "outcome"}),
		upstreamDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Latency of upstream gateway requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"gateway"}),
		feedPages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_pages_total",
			Help:      "City feed page fetches by result (appended, failed, stale).",
		}, []string{"result"}),
		activeViews: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "table_views_active",
			Help:      "Mounted city table views.",
		}),
	}
}

// ObserveUpstream records one gateway round trip
func (m *Metrics) ObserveUpstream(gateway string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	switch {
	case errors.Is(err, context.Canceled):
		outcome = "canceled"
	case err != nil:
		outcome = "error"
	}
	m.upstreamRequests.WithLabelValues(gateway, outcome).Inc()
	m.upstreamDuration.WithLabelValues(gateway).Observe(time.Since(start).Seconds())
}

// FeedPage counts a finished page fetch
func (m *Metrics) FeedPage(result string) {
	if m == nil {
		return
	}
	m.feedPages.WithLabelValues(result).Inc()
}

// ViewMounted and ViewUnmounted track the registry population
func (m *Metrics) ViewMounted() {
	if m == nil {
		return
	}
	m.activeViews.Inc()
}

func (m *Metrics) ViewUnmounted() {
	if m == nil {
		return
	}
	m.activeViews.Dec()
}

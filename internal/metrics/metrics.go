package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "useradmin"

// Collector holds the Prometheus metrics for the console.
type Collector struct {
	registry *prometheus.Registry

	SourceRequests *prometheus.CounterVec
	SourceDuration *prometheus.HistogramVec
	Reports        prometheus.Counter
	Notifications  *prometheus.CounterVec
}

// NewCollector creates a collector on its own registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		SourceRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "source_requests_total",
				Help:      "Total number of user data source calls",
			},
			[]string{"op", "outcome"},
		),
		SourceDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "source_request_duration_seconds",
				Help:      "User data source call duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		Reports: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reports_generated_total",
				Help:      "Total number of user reports generated",
			},
		),
		Notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Total number of operator notifications by kind",
			},
			[]string{"kind"},
		),
	}

	registry.MustRegister(
		c.SourceRequests,
		c.SourceDuration,
		c.Reports,
		c.Notifications,
		collectors.NewGoCollector(),
	)
	return c
}

// ObserveSource records one data source call.
func (c *Collector) ObserveSource(op string, started time.Time, err error) {
	if c == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	c.SourceRequests.WithLabelValues(op, outcome).Inc()
	c.SourceDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

// ReportGenerated counts one rendered report.
func (c *Collector) ReportGenerated() {
	if c == nil {
		return
	}
	c.Reports.Inc()
}

// Notified counts one operator notification.
func (c *Collector) Notified(kind string) {
	if c == nil {
		return
	}
	c.Notifications.WithLabelValues(kind).Inc()
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collector's metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

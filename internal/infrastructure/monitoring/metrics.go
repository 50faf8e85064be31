// Package monitoring exposes platform metrics via Prometheus.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the platform.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Lifecycle metrics
	AppsInstalled prometheus.Gauge
	DockSize      prometheus.Gauge

	// Installation metrics
	InstallsTotal  *prometheus.CounterVec // source, result
	CompilesTotal  *prometheus.CounterVec // result
	CompileSeconds prometheus.Histogram

	// Remote loader metrics
	BundleFetchSeconds prometheus.Histogram
	IntegrityFailures  prometheus.Counter

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// NewMetrics creates a metrics collector registered on the default
// registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		startTime: time.Now(),

		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "platform_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "platform_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		AppsInstalled: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "platform_apps_installed",
			Help: "Number of apps currently installed",
		}),
		DockSize: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "platform_dock_size",
			Help: "Number of apps pinned to the dock",
		}),
		InstallsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "platform_installs_total",
				Help: "App installations by source and result",
			},
			[]string{"source", "result"},
		),
		CompilesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "platform_quickapp_compiles_total",
				Help: "Quick app compilations by result",
			},
			[]string{"result"},
		),
		CompileSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "platform_quickapp_compile_seconds",
			Help:    "Quick app compilation duration",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5},
		}),
		BundleFetchSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "platform_bundle_fetch_seconds",
			Help:    "Remote bundle download duration",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		IntegrityFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "platform_bundle_integrity_failures_total",
			Help: "Remote bundles rejected for digest mismatch",
		}),
		Uptime: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "platform_uptime_seconds",
			Help: "Process uptime in seconds",
		}),
	}

	return m
}

// UpdateUptime refreshes the uptime gauge.
func (m *Metrics) UpdateUptime() {
	m.Uptime.Set(time.Since(m.startTime).Seconds())
}

// RecordInstall counts one installation attempt.
func (m *Metrics) RecordInstall(source, result string) {
	m.InstallsTotal.WithLabelValues(source, result).Inc()
}

// RecordCompile counts one compilation and its duration.
func (m *Metrics) RecordCompile(result string, d time.Duration) {
	m.CompilesTotal.WithLabelValues(result).Inc()
	m.CompileSeconds.Observe(d.Seconds())
}

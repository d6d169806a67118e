package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder receives the outcome of session operations
type Recorder interface {
	Observe(operation string, success bool, duration time.Duration)
	SessionsActive(n int)
	ExportWritten(reportType string, rows int)
}

// Collector is a Recorder backed by a private prometheus registry
type Collector struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	durations  *prometheus.HistogramVec
	sessions   prometheus.Gauge
	exports    *prometheus.CounterVec
	exportRows *prometheus.CounterVec
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assessment",
			Name:      "operations_total",
			Help:      "Session operations by name and result.",
		}, []string{"operation", "status"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "assessment",
			Name:      "operation_duration_seconds",
			Help:      "Time spent in session operations.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"operation"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "assessment",
			Name:      "sessions_active",
			Help:      "Sessions currently held in memory.",
		}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assessment",
			Name:      "exports_total",
			Help:      "CSV exports by report type.",
		}, []string{"report_type"}),
		exportRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assessment",
			Name:      "export_rows_total",
			Help:      "Rows written to CSV exports by report type.",
		}, []string{"report_type"}),
	}

	c.registry.MustRegister(
		c.operations,
		c.durations,
		c.sessions,
		c.exports,
		c.exportRows,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) Observe(operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	c.operations.WithLabelValues(operation, status).Inc()
	c.durations.WithLabelValues(operation).Observe(duration.Seconds())
}

func (c *Collector) SessionsActive(n int) {
	c.sessions.Set(float64(n))
}

func (c *Collector) ExportWritten(reportType string, rows int) {
	c.exports.WithLabelValues(reportType).Inc()
	c.exportRows.WithLabelValues(reportType).Add(float64(rows))
}

// Handler serves the registry in the prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Nop discards every observation
type Nop struct{}

func (Nop) Observe(string, bool, time.Duration) {}
func (Nop) SessionsActive(int) {}
func (Nop) ExportWritten(string, int) {}

// Package metrics records zonemeter run metrics for Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/waterops/zonemeter"
)

// Metrics bundles zonemeter run metrics on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	RunsTotal       *prometheus.CounterVec
	RunDuration     prometheus.Histogram
	BlocksWritten   prometheus.Counter
	UnresolvedTotal prometheus.Counter
	IssuesTotal     *prometheus.CounterVec
	LastSuccess     prometheus.Gauge
}

// New constructs and registers metrics.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zonemeter_runs_total",
				Help: "Total aggregation runs by status",
			},
			[]string{"status"},
		),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "zonemeter_run_duration_seconds",
			Help:    "Aggregation run duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		BlocksWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zonemeter_blocks_written_total",
			Help: "Total summary blocks inserted",
		}),
		UnresolvedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zonemeter_unresolved_columns_total",
			Help: "Total meter identifiers without a matching header column",
		}),
		IssuesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zonemeter_issues_total",
				Help: "Total run diagnostics by kind",
			},
			[]string{"kind"},
		),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "zonemeter_last_success_timestamp_seconds",
			Help: "Unix time of the last run that did not fail",
		}),
	}
	m.Registry.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.BlocksWritten,
		m.UnresolvedTotal,
		m.IssuesTotal,
		m.LastSuccess,
	)
	return m
}

// Observe records one run outcome.
func (m *Metrics) Observe(out zonemeter.Outcome, elapsed time.Duration) {
	m.RunsTotal.WithLabelValues(string(out.Status)).Inc()
	m.RunDuration.Observe(elapsed.Seconds())
	m.UnresolvedTotal.Add(float64(len(out.Unresolved)))
	for _, is := range out.Issues {
		m.IssuesTotal.WithLabelValues(string(is.Kind)).Inc()
	}
	switch out.Status {
	case zonemeter.StatusWritten:
		m.BlocksWritten.Inc()
		m.LastSuccess.SetToCurrentTime()
	case zonemeter.StatusDuplicate:
		m.LastSuccess.SetToCurrentTime()
	}
}

// WriteTextfile writes the registry in the text exposition format for the
// node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}

// Package metrics counts what a sweep did in a private Prometheus
// registry. A run is a batch job, so the registry is written out once in
// the textfile format instead of being served.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the sweep metrics. A nil *Recorder records nothing.
type Recorder struct {
	registry *prometheus.Registry

	nodesTotal       *prometheus.CounterVec
	leavesTotal      *prometheus.CounterVec
	matchesTotal     *prometheus.CounterVec
	diagnosticsTotal *prometheus.CounterVec
	leafSeconds      prometheus.Histogram
	runSeconds       prometheus.Gauge
	aborted          prometheus.Gauge
}

// New creates a recorder with every metric registered.
func New() (*Recorder, error) {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.nodesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menusweep_nodes_activated_total",
			Help: "Menu nodes clicked during the walk",
		},
		[]string{"side", "top"},
	)
	r.leavesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menusweep_leaves_scanned_total",
			Help: "Screens searched and scanned",
		},
		[]string{"side", "top"},
	)
	r.matchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menusweep_matches_total",
			Help: "Sensitive data matches by pattern",
		},
		[]string{"side", "pattern"},
	)
	r.diagnosticsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menusweep_diagnostics_total",
			Help: "Anomalies, skipped branches and missing controls",
		},
		[]string{"kind"},
	)
	r.leafSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "menusweep_leaf_duration_seconds",
		Help:    "Time spent on one leaf: search, scan and tab close",
		Buckets: []float64{0.25, 0.5, 1, 2, 3, 5, 10, 20},
	})
	r.runSeconds = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "menusweep_run_duration_seconds",
		Help: "Wall time of the whole sweep",
	})
	r.aborted = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "menusweep_run_aborted",
		Help: "1 when the sweep stopped early",
	})

	for _, c := range []prometheus.Collector{
		r.nodesTotal, r.leavesTotal, r.matchesTotal, r.diagnosticsTotal,
		r.leafSeconds, r.runSeconds, r.aborted,
	} {
		if err := r.registry.Register(c); err != nil {
			return nil, fmt.Errorf("register metric: %w", err)
		}
	}
	return r, nil
}

// NodeActivated counts one clicked menu node.
func (r *Recorder) NodeActivated(side, top string) {
	if r == nil {
		return
	}
	r.nodesTotal.WithLabelValues(side, top).Inc()
}

// LeafScanned counts one leaf and its matches per pattern.
func (r *Recorder) LeafScanned(side, top string, matches map[string][]string, took time.Duration) {
	if r == nil {
		return
	}
	r.leavesTotal.WithLabelValues(side, top).Inc()
	r.leafSeconds.Observe(took.Seconds())
	for name, hits := range matches {
		r.matchesTotal.WithLabelValues(side, name).Add(float64(len(hits)))
	}
}

// Diagnostic counts one run diagnostic.
func (r *Recorder) Diagnostic(kind string) {
	if r == nil {
		return
	}
	r.diagnosticsTotal.WithLabelValues(kind).Inc()
}

// Finish records the run outcome.
func (r *Recorder) Finish(took time.Duration, aborted bool) {
	if r == nil {
		return
	}
	r.runSeconds.Set(took.Seconds())
	if aborted {
		r.aborted.Set(1)
	} else {
		r.aborted.Set(0)
	}
}

// WriteTextfile writes the registry in the node exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

// Package metrics collects run results in a private Prometheus registry and
// writes them in the textfile exposition format, so batch runs can be picked
// up by a node exporter without smf serving anything.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "smf"

// Sample is what one run reports.
type Sample struct {
	BaseMakespan      int
	OptimizedMakespan int
	SerialMakespan    int
	Transactions      int
	// StepCosts holds the conflict cost of every scheduling step after the
	// first placement.
	StepCosts []int
}

// Recorder owns the collectors for one process.
type Recorder struct {
	registry      *prometheus.Registry
	runs          prometheus.Counter
	failures      prometheus.Counter
	makespan      *prometheus.HistogramVec
	lastMakespan  *prometheus.GaugeVec
	stepCost      prometheus.Histogram
	transactions  prometheus.Gauge
	improvedTotal prometheus.Counter
}

// New registers every collector on a fresh registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Scheduling runs completed.",
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "run_failures_total",
			Help:      "Scheduling runs rejected before completion.",
		}),
		makespan: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "makespan_layers",
			Help:      "Layers needed to drain a schedule.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"schedule"}),
		lastMakespan: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_makespan_layers",
			Help:      "Makespan of the most recent run.",
		}, []string{"schedule"}),
		stepCost: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_conflict_cost",
			Help:      "Conflict cost of each greedy placement against its predecessor.",
			Buckets:   prometheus.LinearBuckets(0, 1, 10),
		}),
		transactions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_transactions",
			Help:      "Transactions in the most recent workload.",
		}),
		improvedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_improved_total",
			Help:      "Runs where the reordered schedule beat the input order.",
		}),
	}
	r.registry.MustRegister(r.runs, r.failures, r.makespan, r.lastMakespan, r.stepCost, r.transactions, r.improvedTotal)
	return r
}

// Registry exposes the underlying registry for callers that want to gather.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Observe records one completed run.
func (r *Recorder) Observe(s Sample) {
	if r == nil {
		return
	}
	r.runs.Inc()
	r.transactions.Set(float64(s.Transactions))
	for label, value := range map[string]int{
		"base":      s.BaseMakespan,
		"optimized": s.OptimizedMakespan,
		"serial":    s.SerialMakespan,
	} {
		r.makespan.WithLabelValues(label).Observe(float64(value))
		r.lastMakespan.WithLabelValues(label).Set(float64(value))
	}
	for _, cost := range s.StepCosts {
		r.stepCost.Observe(float64(cost))
	}
	if s.OptimizedMakespan < s.BaseMakespan {
		r.improvedTotal.Inc()
	}
}

// Failed records a rejected run.
func (r *Recorder) Failed() {
	if r == nil {
		return
	}
	r.failures.Inc()
}

// WriteTextfile writes the registry atomically to path.
func (r *Recorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("metrics: ensure dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("metrics: write %s: %w", path, err)
	}
	return nil
}

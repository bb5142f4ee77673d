// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// A batch job exits before any scraper would see it, so the collected
// registry is pushed to a Pushgateway on Flush instead of being served.
package prompush

import (
	"fmt"

	"salesetl/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" grouping key
	reg        *prometheus.Registry

	stepCounter  *prometheus.CounterVec // step, status
	stepDuration *prometheus.SummaryVec // step, status
	rowCounter   *prometheus.CounterVec // kind
	batchCounter prometheus.Counter
}

// NewBackend constructs a Prometheus Pushgateway backend. jobName is the
// Pushgateway grouping job and defaults to "salesetl".
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "salesetl"
	}

	reg := prometheus.NewRegistry()

	stepCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.StepTotal,
			Help: "Pipeline step executions by step and status.",
		},
		[]string{"step", "status"},
	)
	stepDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       metrics.StepDurationSeconds,
			Help:       "Pipeline step duration in seconds by step and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"step", "status"},
	)
	rowCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.RowsTotal,
			Help: "Rows handled per kind (read, filtered, groups, loaded).",
		},
		[]string{"kind"},
	)
	batchCounter := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: metrics.BatchesTotal,
			Help: "Database batches written by this job.",
		},
	)

	for _, c := range []struct {
		what string
		c    prometheus.Collector
	}{
		{"step counter", stepCounter},
		{"step summary", stepDuration},
		{"row counter", rowCounter},
		{"batch counter", batchCounter},
	} {
		if err := reg.Register(c.c); err != nil {
			return nil, fmt.Errorf("prompush: register %s: %w", c.what, err)
		}
	}

	return &Backend{
		gatewayURL:   gatewayURL,
		jobName:      jobName,
		reg:          reg,
		stepCounter:  stepCounter,
		stepDuration: stepDuration,
		rowCounter:   rowCounter,
		batchCounter: batchCounter,
	}, nil
}

// IncCounter implements metrics.Backend. Unknown names are ignored.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.StepTotal:
		if b.stepCounter != nil {
			b.stepCounter.WithLabelValues(labels["step"], labels["status"]).Add(delta)
		}
	case metrics.RowsTotal:
		if b.rowCounter != nil {
			b.rowCounter.WithLabelValues(labels["kind"]).Add(delta)
		}
	case metrics.BatchesTotal:
		if b.batchCounter != nil {
			b.batchCounter.Add(delta)
		}
	}
}

// ObserveHistogram implements metrics.Backend. Only step durations are kept.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.StepDurationSeconds || b.stepDuration == nil {
		return
	}
	b.stepDuration.WithLabelValues(labels["step"], labels["status"]).Observe(value)
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}

// Package datadog implements a DogStatsD backend for the metrics package.
// Labels become Datadog tags of the form "key:value".
package datadog

import (
	"fmt"
	"sort"

	"salesetl/internal/metrics"

	"github.com/DataDog/datadog-go/v5/statsd"
)

// Config holds Datadog backend configuration.
type Config struct {
	// Addr is the DogStatsD address, e.g. "127.0.0.1:8125" or "unix:///path/to/socket".
	Addr string

	// Namespace is an optional prefix added to all metric names, e.g. "salesetl.".
	Namespace string

	// GlobalTags are applied to every metric, e.g. []string{"env:prod"}.
	GlobalTags []string
}

// Backend is a Datadog implementation of metrics.Backend.
type Backend struct {
	client *statsd.Client
}

// NewBackend constructs a Datadog metrics backend. Addr is required.
func NewBackend(cfg Config) (*Backend, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("datadog: Addr is required")
	}

	var opts []statsd.Option
	if cfg.Namespace != "" {
		opts = append(opts, statsd.WithNamespace(cfg.Namespace))
	}
	if len(cfg.GlobalTags) > 0 {
		opts = append(opts, statsd.WithTags(cfg.GlobalTags))
	}

	c, err := statsd.New(cfg.Addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("datadog: create client: %w", err)
	}
	return &Backend{client: c}, nil
}

// IncCounter implements metrics.Backend using a Count metric. DogStatsD
// counts are integral; fractional deltas are truncated.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	if b.client == nil {
		return
	}
	_ = b.client.Count(name, int64(delta), labelsToTags(labels), 1)
}

// ObserveHistogram implements metrics.Backend using a Histogram metric.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if b.client == nil {
		return
	}
	_ = b.client.Histogram(name, value, labelsToTags(labels), 1)
}

// Flush closes the client, which flushes buffered and aggregated metrics.
// The backend is unusable afterwards; call it once at process exit.
func (b *Backend) Flush() error {
	if b.client == nil {
		return nil
	}
	return b.client.Close()
}

// labelsToTags converts labels into sorted "key:value" tags.
func labelsToTags(lbls metrics.Labels) []string {
	if len(lbls) == 0 {
		return nil
	}
	out := make([]string, 0, len(lbls))
	for k, v := range lbls {
		out = append(out, k+":"+v)
	}
	sort.Strings(out)
	return out
}

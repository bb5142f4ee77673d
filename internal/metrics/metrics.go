// Package metrics records operational metrics for pipeline runs behind a
// small backend-agnostic interface.
//
// The default backend is a no-op, so instrumentation is always safe to call.
// Concrete systems live in subpackages (prompush, datadog) and are installed
// once at startup with SetBackend.
package metrics

import "time"

// Metric names emitted by the Record helpers. Backends switch on these.
const (
	StepTotal           = "salesetl_step_total"
	StepDurationSeconds = "salesetl_step_duration_seconds"
	RowsTotal           = "salesetl_rows_total"
	BatchesTotal        = "salesetl_batches_total"
)

// Row kinds reported through RecordRows.
const (
	RowsRead     = "read"
	RowsFiltered = "filtered"
	RowsGroups   = "groups"
	RowsLoaded   = "loaded"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep counts one execution of a pipeline step and observes its
// duration, labelled with the outcome.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}

	backend.IncCounter(StepTotal, 1, lbls)
	backend.ObserveHistogram(StepDurationSeconds, d.Seconds(), lbls)
}

// RecordRows adds n to the row counter for kind (RowsRead, RowsFiltered,
// RowsGroups, RowsLoaded). Non-positive n is ignored.
func RecordRows(job, kind string, n int) {
	if n <= 0 {
		return
	}
	backend.IncCounter(RowsTotal, float64(n), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordBatches increments the database batch counter for job.
func RecordBatches(job string, n int) {
	if n <= 0 {
		return
	}
	backend.IncCounter(BatchesTotal, float64(n), Labels{
		"job": job,
	})
}

// Package metrics provides a small, backend-agnostic abstraction for
// recording operational metrics from the pipeline.
//
// It exposes a narrow interface (Backend) focused on counters and timing
// data, with a global pluggable backend that defaults to a no-op
// implementation, so metric calls are always safe even when no real backend
// is configured. The design mirrors the storage abstraction: callers depend
// only on this package while concrete metric systems live in subpackages.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveDuration records a duration-style value in seconds.
	ObserveDuration(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics if the backend needs it.
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)      {}
func (nopBackend) ObserveDuration(string, float64, Labels) {}
func (nopBackend) Flush() error                            { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing one.
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

// RecordStep measures latency plus success/failure for one pipeline step
// (fetch, transform, load, query).
func RecordStep(step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"step": step, "status": status}

	backend.IncCounter("cdcetl_step_total", 1, lbls)
	backend.ObserveDuration("cdcetl_step_duration_seconds", d.Seconds(), lbls)
}

// RecordRows increments a row-level counter for the given kind.
//
// Typical kinds mirror the run summary fields:
//   - "fetched"
//   - "cleaned"
//   - "dropped"
//   - "loaded"
func RecordRows(kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("cdcetl_rows_total", float64(delta), Labels{"kind": kind})
}

// RecordChunk counts one processed source chunk with its outcome.
func RecordChunk(status string) {
	backend.IncCounter("cdcetl_chunks_total", 1, Labels{"status": status})
}

// Package metrics defines the minimal metrics surface the pipeline emits
// to.
//
// Design goals (intentionally opinionated):
//   - Pipeline code depends only on metrics.Backend; backend specifics
//     (Datadog buffering, flush cadence) stay in their own packages.
//   - The process default is a nop backend, so instrumentation calls are
//     always safe and never need nil checks.
//   - SetBackend is called once at startup; there is no teardown beyond the
//     final Flush.
package metrics

import "sync"

// Labels are metric tags, e.g. {"dataset": "irs_990_2020"}.
type Labels map[string]string

// Backend is the sink for emitted metrics.
type Backend interface {
	// IncCounter adds delta to the named counter.
	IncCounter(name string, delta float64, labels Labels)

	// ObserveHistogram records one sample of a distribution (durations,
	// row counts).
	ObserveHistogram(name string, value float64, labels Labels)

	// Flush submits buffered metrics. Safe to call multiple times.
	Flush() error
}

// nop discards all metrics. It is the process default.
type nop struct{}

func (nop) IncCounter(string, float64, Labels)       {}
func (nop) ObserveHistogram(string, float64, Labels) {}
func (nop) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nop{}
)

// SetBackend installs b as the process backend. Call once at startup.
func SetBackend(b Backend) {
	if b == nil {
		b = nop{}
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// IncCounter adds delta to the named counter on the process backend.
func IncCounter(name string, delta float64, labels Labels) {
	current().IncCounter(name, delta, labels)
}

// ObserveHistogram records one sample on the process backend.
func ObserveHistogram(name string, value float64, labels Labels) {
	current().ObserveHistogram(name, value, labels)
}

// Flush submits buffered metrics on the process backend.
func Flush() error {
	return current().Flush()
}

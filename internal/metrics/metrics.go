// Package metrics defines the minimal instrumentation surface the pipeline
// emits through. Core code depends only on Backend; concrete sinks live in
// subpackages (datadog) and are selected by configuration.
package metrics

// Labels tag a metric sample, e.g. {"entity": "vendas"}.
type Labels map[string]string

// Backend receives pipeline metrics. Implementations must be safe for
// concurrent use.
type Backend interface {
	// IncCounter adds delta to a named counter. Non-positive deltas are ignored.
	IncCounter(name string, delta float64, labels Labels)

	// ObserveHistogram records one sample of a named distribution.
	ObserveHistogram(name string, value float64, labels Labels)

	// Flush submits buffered metrics to the sink.
	Flush() error

	// Close stops background work and performs a final Flush.
	Close() error
}

// Metric names emitted by the transform coordinator and the merge loader.
const (
	RowsTotal      = "dw_rows_total"
	FailuresTotal  = "dw_failures_total"
	BatchesTotal   = "dw_batches_total"
	EntityDuration = "dw_entity_duration_seconds"
)

// Nop discards all metrics. Used when no sink is configured.
type Nop struct{}

func (Nop) IncCounter(string, float64, Labels)       {}
func (Nop) ObserveHistogram(string, float64, Labels) {}
func (Nop) Flush() error                             { return nil }
func (Nop) Close() error                             { return nil }

var _ Backend = Nop{}

package harness

import "fmt"

// TraceEvent records one executed step.
type TraceEvent struct {
	Seq int    `json:"seq"`
	Op  string `json:"op"`

	// Term is the rendering of the term the step produced, if any.
	Term string `json:"term,omitempty"`

	// Error is the expected error code the step failed with, if any.
	Error string `json:"error,omitempty"`

	// Metrics is the occupancy snapshot recorded by a metrics step.
	Metrics *MetricsEvent `json:"metrics,omitempty"`
}

// MetricsEvent is the deterministic subset of a pool metrics snapshot.
type MetricsEvent struct {
	Terms       int64  `json:"terms"`
	Capacity    int64  `json:"capacity"`
	Symbols     int64  `json:"symbols"`
	Collections uint64 `json:"collections"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every assertion held.
	Pass bool `json:"pass"`

	// Trace contains one event per executed step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:  true,
		Trace: []TraceEvent{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

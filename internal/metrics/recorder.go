package metrics

import "time"

// ResultLabel enumerates operation result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailed  ResultLabel = "failed"
)

// Recorder defines observability hooks for entity lifecycle operations.
// Implementations may forward to Prometheus, OpenTelemetry, etc. All methods
// must be safe for nil receivers when using the NoopRecorder (allowing
// optional injection).
type Recorder interface {
	ObserveOperationDuration(kind, operation string, d time.Duration)
	IncOperationResult(kind, operation string, result ResultLabel)
	SetEntityStatus(kind, name string, statusCode int)
	IncToolRun(tool string, success bool)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveOperationDuration(string, string, time.Duration) {}
func (NoopRecorder) IncOperationResult(string, string, ResultLabel)         {}
func (NoopRecorder) SetEntityStatus(string, string, int)                    {}
func (NoopRecorder) IncToolRun(string, bool)                                {}

// Package metrics defines the Recorder abstraction used to observe entity
// lifecycle operations, plus a Prometheus-backed implementation. The
// NoopRecorder keeps instrumentation optional: callers inject a Recorder
// and never check for nil.
package metrics

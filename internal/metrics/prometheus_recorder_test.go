package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorderRegistersAndRecords(t *testing.T) {
	reg := prom.NewRegistry()
	rec := NewPrometheusRecorder(reg)

	rec.ObserveOperationDuration("module", "start", 250*time.Millisecond)
	rec.IncOperationResult("module", "start", ResultSuccess)
	rec.SetEntityStatus("module", "ollama", 3)
	rec.IncToolRun("doc-sync", false)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["stackctl_operation_duration_seconds"])
	assert.True(t, names["stackctl_operation_results_total"])
	assert.True(t, names["stackctl_entity_status"])
	assert.True(t, names["stackctl_tool_runs_total"])
}

func TestPrometheusRecorderNilSafe(t *testing.T) {
	var rec *PrometheusRecorder
	rec.ObserveOperationDuration("module", "start", time.Second)
	rec.IncOperationResult("module", "start", ResultFailed)
	rec.SetEntityStatus("module", "ollama", 0)
	rec.IncToolRun("doc-sync", true)
}

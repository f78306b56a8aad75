package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once              sync.Once
	operationDuration *prom.HistogramVec
	operationResults  *prom.CounterVec
	entityStatus      *prom.GaugeVec
	toolRuns          *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.operationDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "stackctl",
			Name:      "operation_duration_seconds",
			Help:      "Duration of entity lifecycle operations",
			Buckets:   prom.DefBuckets,
		}, []string{"kind", "operation"})
		pr.operationResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "stackctl",
			Name:      "operation_results_total",
			Help:      "Lifecycle operation counts by outcome",
		}, []string{"kind", "operation", "result"})
		pr.entityStatus = prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "stackctl",
			Name:      "entity_status",
			Help:      "Last observed entity status code (0 unknown, 1 stopped, 3 running, 5 error)",
		}, []string{"kind", "entity"})
		pr.toolRuns = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "stackctl",
			Name:      "tool_runs_total",
			Help:      "Tool execution counts by outcome",
		}, []string{"tool", "result"})
		reg.MustRegister(pr.operationDuration, pr.operationResults, pr.entityStatus, pr.toolRuns)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveOperationDuration(kind, operation string, d time.Duration) {
	if p == nil || p.operationDuration == nil {
		return
	}
	p.operationDuration.WithLabelValues(kind, operation).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncOperationResult(kind, operation string, result ResultLabel) {
	if p == nil || p.operationResults == nil {
		return
	}
	p.operationResults.WithLabelValues(kind, operation, string(result)).Inc()
}

func (p *PrometheusRecorder) SetEntityStatus(kind, name string, statusCode int) {
	if p == nil || p.entityStatus == nil {
		return
	}
	p.entityStatus.WithLabelValues(kind, name).Set(float64(statusCode))
}

func (p *PrometheusRecorder) IncToolRun(tool string, success bool) {
	if p == nil || p.toolRuns == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.toolRuns.WithLabelValues(tool, res).Inc()
}

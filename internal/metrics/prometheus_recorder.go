package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every exported metric.
const Namespace = "folio"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once             sync.Once
	passDuration     *prom.HistogramVec
	passOutcomes     *prom.CounterVec
	stageResults     *prom.CounterVec
	artifactsWritten *prom.CounterVec
	artifactsDeleted *prom.CounterVec
	renderFailures   *prom.CounterVec
	cacheLookups     *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.passDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: Namespace,
			Name:      "sync_pass_duration_seconds",
			Help:      "Duration of sync passes per collection",
			Buckets:   prom.DefBuckets,
		}, []string{"collection"})
		pr.passOutcomes = prom.NewCounterVec(prom.CounterOpts{
			Namespace: Namespace,
			Name:      "sync_pass_outcomes_total",
			Help:      "Sync pass outcomes per collection",
		}, []string{"collection", "result"})
		pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: Namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"})
		pr.artifactsWritten = prom.NewCounterVec(prom.CounterOpts{
			Namespace: Namespace,
			Name:      "artifacts_written_total",
			Help:      "Artifacts written to durable storage",
		}, []string{"collection"})
		pr.artifactsDeleted = prom.NewCounterVec(prom.CounterOpts{
			Namespace: Namespace,
			Name:      "artifacts_deleted_total",
			Help:      "Artifacts deleted from durable storage",
		}, []string{"collection"})
		pr.renderFailures = prom.NewCounterVec(prom.CounterOpts{
			Namespace: Namespace,
			Name:      "render_failures_total",
			Help:      "Source files skipped because they failed to render",
		}, []string{"collection"})
		pr.cacheLookups = prom.NewCounterVec(prom.CounterOpts{
			Namespace: Namespace,
			Name:      "cache_lookups_total",
			Help:      "Artifact cache lookups by result",
		}, []string{"collection", "result"})
		reg.MustRegister(pr.passDuration, pr.passOutcomes, pr.stageResults, pr.artifactsWritten,
			pr.artifactsDeleted, pr.renderFailures, pr.cacheLookups)
	})
	return pr
}

func (p *PrometheusRecorder) ObservePassDuration(collection string, d time.Duration) {
	if p == nil || p.passDuration == nil {
		return
	}
	p.passDuration.WithLabelValues(collection).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPassOutcome(collection string, result ResultLabel) {
	if p == nil || p.passOutcomes == nil {
		return
	}
	p.passOutcomes.WithLabelValues(collection, string(result)).Inc()
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) AddArtifactsWritten(collection string, n int) {
	if p == nil || p.artifactsWritten == nil || n <= 0 {
		return
	}
	p.artifactsWritten.WithLabelValues(collection).Add(float64(n))
}

func (p *PrometheusRecorder) AddArtifactsDeleted(collection string, n int) {
	if p == nil || p.artifactsDeleted == nil || n <= 0 {
		return
	}
	p.artifactsDeleted.WithLabelValues(collection).Add(float64(n))
}

func (p *PrometheusRecorder) AddRenderFailures(collection string, n int) {
	if p == nil || p.renderFailures == nil || n <= 0 {
		return
	}
	p.renderFailures.WithLabelValues(collection).Add(float64(n))
}

func (p *PrometheusRecorder) IncCacheLookup(collection string, result CacheResult) {
	if p == nil || p.cacheLookups == nil {
		return
	}
	p.cacheLookups.WithLabelValues(collection, string(result)).Inc()
}

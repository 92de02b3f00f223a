package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObservePassDuration("live", 150*time.Millisecond)
	pr.IncPassOutcome("live", ResultSuccess)
	pr.IncStageResult("publishing", ResultSuccess)
	pr.AddArtifactsWritten("live", 3)
	pr.AddArtifactsDeleted("live", 1)
	pr.AddRenderFailures("live", 0)
	pr.IncCacheLookup("live", CacheHit)
	pr.IncCacheLookup("live", CacheHit)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			if c := m.GetCounter(); c != nil {
				values[mf.GetName()] += c.GetValue()
			}
		}
	}
	assert.InDelta(t, 3, values["folio_artifacts_written_total"], 0)
	assert.InDelta(t, 2, values["folio_cache_lookups_total"], 0)
	assert.InDelta(t, 1, values["folio_artifacts_deleted_total"], 0)
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	assert.NotPanics(t, func() {
		pr.IncCacheLookup("live", CacheMiss)
		pr.ObservePassDuration("live", time.Second)
	})
	var _ Recorder = NoopRecorder{}
	var _ Recorder = pr
}

func TestHTTPHandler(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg).IncPassOutcome("draft", ResultFailed)

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `folio_sync_pass_outcomes_total{collection="draft",result="failed"} 1`)
}

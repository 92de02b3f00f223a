package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultSkipped  ResultLabel = "skipped"
	ResultFailed   ResultLabel = "failed"
	ResultCanceled ResultLabel = "canceled"
)

// CacheResult enumerates artifact cache lookup outcomes.
type CacheResult string

const (
	CacheHit         CacheResult = "hit"
	CacheNotModified CacheResult = "not_modified"
	CacheMiss        CacheResult = "miss"
	CacheNotFound    CacheResult = "not_found"
)

// Recorder defines observability hooks for sync passes and cache lookups.
type Recorder interface {
	ObservePassDuration(collection string, d time.Duration)
	IncPassOutcome(collection string, result ResultLabel)
	IncStageResult(stage string, result ResultLabel)
	AddArtifactsWritten(collection string, n int)
	AddArtifactsDeleted(collection string, n int)
	AddRenderFailures(collection string, n int)
	IncCacheLookup(collection string, result CacheResult)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObservePassDuration(string, time.Duration) {}
func (NoopRecorder) IncPassOutcome(string, ResultLabel)        {}
func (NoopRecorder) IncStageResult(string, ResultLabel)        {}
func (NoopRecorder) AddArtifactsWritten(string, int)           {}
func (NoopRecorder) AddArtifactsDeleted(string, int)           {}
func (NoopRecorder) AddRenderFailures(string, int)             {}
func (NoopRecorder) IncCacheLookup(string, CacheResult)        {}

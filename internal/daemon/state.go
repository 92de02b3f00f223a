package daemon

import (
	"sync"
	"time"

	"git.home.luguber.info/inful/folio/internal/history"
	"git.home.luguber.info/inful/folio/internal/model"
)

// Stage is the position of a collection in the sync state machine.
type Stage string

const (
	StageIdle       Stage = "idle"
	StageFetching   Stage = "fetching"
	StageDiffing    Stage = "diffing"
	StageMirroring  Stage = "mirroring"
	StageGenerating Stage = "generating"
	StagePublishing Stage = "publishing"
)

// CollectionState is the per-collection state owned by the sync loop. The
// committed snapshot is a field here; it is loaded from storage on first use
// and replaced only after a successful commit.
type CollectionState struct {
	mu sync.RWMutex

	name      string
	stage     Stage
	snapshot  model.Snapshot
	loaded    bool
	persisted bool
	postCount int

	lastPassID   string
	lastPassAt   time.Time
	lastDuration time.Duration
	lastOutcome  history.Outcome
	lastError    string
}

// CollectionStatus is a point-in-time copy of a CollectionState.
type CollectionStatus struct {
	Name         string          `json:"name"`
	Stage        Stage           `json:"stage"`
	Files        int             `json:"files"`
	Posts        int             `json:"posts"`
	LastPassID   string          `json:"last_pass_id,omitempty"`
	LastPassAt   *time.Time      `json:"last_pass_at,omitempty"`
	LastDuration string          `json:"last_duration,omitempty"`
	LastOutcome  history.Outcome `json:"last_outcome,omitempty"`
	LastError    string          `json:"last_error,omitempty"`
}

func newCollectionState(name string) *CollectionState {
	return &CollectionState{name: name, stage: StageIdle}
}

func (s *CollectionState) setStage(stage Stage) {
	s.mu.Lock()
	s.stage = stage
	s.mu.Unlock()
}

// committed returns the last committed snapshot. persisted is false until a
// snapshot exists in storage for this collection.
func (s *CollectionState) committed() (snap model.Snapshot, loaded, persisted bool, posts int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot, s.loaded, s.persisted, s.postCount
}

func (s *CollectionState) setLoaded(snap model.Snapshot, persisted bool) {
	s.mu.Lock()
	s.snapshot = snap
	s.loaded = true
	s.persisted = persisted
	s.mu.Unlock()
}

func (s *CollectionState) commit(snap model.Snapshot, posts int) {
	s.mu.Lock()
	s.snapshot = snap
	s.loaded = true
	s.persisted = true
	s.postCount = posts
	s.mu.Unlock()
}

func (s *CollectionState) finish(p history.Pass) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stage = StageIdle
	s.lastPassID = p.ID
	s.lastPassAt = p.StartedAt
	s.lastDuration = p.Duration
	s.lastOutcome = p.Outcome
	s.lastError = p.Error
}

// Snapshot returns the committed snapshot.
func (s *CollectionState) Snapshot() model.Snapshot {
	snap, _, _, _ := s.committed()
	return snap
}

// Status returns a copy of the state.
func (s *CollectionState) Status() CollectionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := CollectionStatus{
		Name:        s.name,
		Stage:       s.stage,
		Files:       len(s.snapshot.Files(nil)),
		Posts:       s.postCount,
		LastPassID:  s.lastPassID,
		LastOutcome: s.lastOutcome,
		LastError:   s.lastError,
	}
	if !s.lastPassAt.IsZero() {
		at := s.lastPassAt
		st.LastPassAt = &at
		st.LastDuration = s.lastDuration.String()
	}
	return st
}

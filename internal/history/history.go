// Package history keeps a log of sync passes for status reporting.
package history

import (
	"context"
	"time"
)

// Outcome labels how a pass ended.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeFailed    Outcome = "failed"
	OutcomeCanceled  Outcome = "canceled"
)

// Pass records one sync pass of one collection.
type Pass struct {
	ID             string        `json:"id"`
	Collection     string        `json:"collection"`
	StartedAt      time.Time     `json:"started_at"`
	Duration       time.Duration `json:"duration_ns"`
	Outcome        Outcome       `json:"outcome"`
	Stage          string        `json:"stage,omitempty"`
	Added          int           `json:"added"`
	Removed        int           `json:"removed"`
	Modified       int           `json:"modified"`
	Artifacts      int           `json:"artifacts"`
	RenderFailures int           `json:"render_failures"`
	Error          string        `json:"error,omitempty"`
}

// Log stores pass records.
type Log interface {
	Record(ctx context.Context, p Pass) error
	// Recent returns up to limit passes, newest first. An empty collection
	// matches every collection.
	Recent(ctx context.Context, collection string, limit int) ([]Pass, error)
	Close() error
}

// NoopLog discards records.
type NoopLog struct{}

// Record implements Log.
func (NoopLog) Record(context.Context, Pass) error { return nil }

// Recent implements Log.
func (NoopLog) Recent(context.Context, string, int) ([]Pass, error) { return nil, nil }

// Close implements Log.
func (NoopLog) Close() error { return nil }

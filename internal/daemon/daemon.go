// Package daemon runs the periodic sync loop: one scheduled job per
// collection that lists the remote, diffs against the committed snapshot,
// mirrors changed files, regenerates artifacts and publishes them.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"git.home.luguber.info/inful/folio/internal/config"
	"git.home.luguber.info/inful/folio/internal/diff"
	ferrors "git.home.luguber.info/inful/folio/internal/errors"
	"git.home.luguber.info/inful/folio/internal/generator"
	"git.home.luguber.info/inful/folio/internal/history"
	"git.home.luguber.info/inful/folio/internal/logfields"
	"git.home.luguber.info/inful/folio/internal/metrics"
	"git.home.luguber.info/inful/folio/internal/mirror"
	"git.home.luguber.info/inful/folio/internal/publisher"
	"git.home.luguber.info/inful/folio/internal/remote"
)

// Deps are the collaborators of the sync loop.
type Deps struct {
	Provider  remote.Provider
	Publisher *publisher.Publisher
	Generator *generator.Generator
	History   history.Log
	Recorder  metrics.Recorder
	// Filter selects the files a collection publishes.
	Filter diff.Filter
	// MirrorRoot holds one mirror directory per collection.
	MirrorRoot   string
	FetchTimeout time.Duration
}

// Daemon owns the per-collection states and their scheduled jobs.
type Daemon struct {
	deps        *Deps
	interval    time.Duration
	watch       bool
	order       []string
	collections map[string]*collection

	scheduler *Scheduler
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// New creates a daemon for every configured collection.
func New(cfg *config.Config, deps Deps) (*Daemon, error) {
	if deps.Provider == nil || deps.Publisher == nil || deps.Generator == nil {
		return nil, errors.New("daemon requires a provider, publisher and generator")
	}
	if deps.History == nil {
		deps.History = history.NoopLog{}
	}
	if deps.Recorder == nil {
		deps.Recorder = metrics.NoopRecorder{}
	}
	if deps.Filter == nil {
		deps.Filter = diff.ContentFilter()
	}
	if deps.MirrorRoot == "" {
		deps.MirrorRoot = filepath.Join(cfg.Sync.DataDir, "mirror")
	}
	if deps.FetchTimeout == 0 {
		deps.FetchTimeout = cfg.Remote.FetchTimeout
	}

	d := &Daemon{
		deps:        &deps,
		interval:    cfg.Sync.Interval,
		watch:       cfg.Remote.Watch,
		collections: make(map[string]*collection, len(cfg.Collections)),
	}
	for _, col := range cfg.Collections {
		m, err := mirror.New(filepath.Join(deps.MirrorRoot, col.Name), deps.Provider, deps.FetchTimeout)
		if err != nil {
			return nil, err
		}
		d.collections[col.Name] = &collection{
			cfg:    col,
			state:  newCollectionState(col.Name),
			mirror: m,
			deps:   d.deps,
		}
		d.order = append(d.order, col.Name)
	}
	return d, nil
}

// SyncOnce runs one pass for the named collection.
func (d *Daemon) SyncOnce(ctx context.Context, name string) (PassResult, error) {
	c, ok := d.collections[name]
	if !ok {
		return PassResult{}, ferrors.NotFound("collection " + name)
	}
	return c.runPass(ctx)
}

// SyncAll runs one pass for every collection, in configuration order.
// Collections are independent: a failure in one does not stop the others.
func (d *Daemon) SyncAll(ctx context.Context) error {
	var errs []error
	for _, name := range d.order {
		if _, err := d.SyncOnce(ctx, name); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Start schedules one job per collection and, when enabled, watches the
// remote for changes that trigger an early pass.
func (d *Daemon) Start(ctx context.Context) error {
	if d.interval <= 0 {
		d.interval = config.DefaultInterval
	}
	s, err := NewScheduler()
	if err != nil {
		return err
	}
	runCtx, cancel := context.WithCancel(ctx)
	d.scheduler = s
	d.cancel = cancel

	for _, name := range d.order {
		c := d.collections[name]
		if _, err := s.ScheduleEvery(jobName(name), d.interval, func() {
			_, _ = c.runPass(runCtx)
		}); err != nil {
			cancel()
			return err
		}
	}
	s.Start()
	slog.Info("Sync loop started", slog.Duration("interval", d.interval), logfields.Count(len(d.order)))

	if w, ok := d.deps.Provider.(remote.Watcher); ok && d.watch {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			err := w.Watch(runCtx, d.triggerAll)
			if err != nil && !errors.Is(err, context.Canceled) {
				slog.Warn("Remote watch stopped", logfields.Error(err))
			}
		}()
	}
	return nil
}

// Stop cancels in-flight passes and waits for scheduled jobs to finish.
func (d *Daemon) Stop(ctx context.Context) error {
	if d.cancel != nil {
		d.cancel()
	}
	var err error
	if d.scheduler != nil {
		err = d.scheduler.Stop(ctx)
	}
	d.wg.Wait()
	return err
}

func (d *Daemon) triggerAll() {
	for _, name := range d.order {
		if err := d.scheduler.RunNow(jobName(name)); err != nil {
			slog.Warn("Failed to trigger sync", logfields.Collection(name), logfields.Error(err))
		}
	}
}

// Collections returns the collection names in configuration order.
func (d *Daemon) Collections() []string {
	return append([]string(nil), d.order...)
}

// State returns the state of the named collection.
func (d *Daemon) State(name string) (*CollectionState, bool) {
	c, ok := d.collections[name]
	if !ok {
		return nil, false
	}
	return c.state, true
}

// Status reports every collection's state.
func (d *Daemon) Status() []CollectionStatus {
	out := make([]CollectionStatus, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, d.collections[name].state.Status())
	}
	return out
}

// History returns recent passes across all collections.
func (d *Daemon) History(ctx context.Context, limit int) ([]history.Pass, error) {
	return d.deps.History.Recent(ctx, "", limit)
}

func jobName(collection string) string { return "sync-" + collection }

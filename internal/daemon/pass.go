package daemon

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/folio/internal/config"
	"git.home.luguber.info/inful/folio/internal/diff"
	ferrors "git.home.luguber.info/inful/folio/internal/errors"
	"git.home.luguber.info/inful/folio/internal/generator"
	"git.home.luguber.info/inful/folio/internal/history"
	"git.home.luguber.info/inful/folio/internal/logfields"
	"git.home.luguber.info/inful/folio/internal/metrics"
	"git.home.luguber.info/inful/folio/internal/mirror"
	"git.home.luguber.info/inful/folio/internal/model"
)

// collection runs sync passes for one collection. Passes never overlap.
type collection struct {
	cfg    config.CollectionConfig
	state  *CollectionState
	mirror *mirror.Cache
	deps   *Deps
	passMu sync.Mutex
}

// PassResult summarizes one sync pass.
type PassResult struct {
	ID        string
	Outcome   history.Outcome
	Diff      diff.Result
	Artifacts int
	Failures  []generator.Failure
}

// runPass executes Fetching → Diffing → Mirroring → Generating → Publishing.
// Any failing stage returns the collection to idle without committing.
func (c *collection) runPass(ctx context.Context) (res PassResult, err error) {
	c.passMu.Lock()
	defer c.passMu.Unlock()

	res.ID = uuid.NewString()
	start := time.Now()
	stage := StageFetching
	log := slog.With(logfields.Collection(c.cfg.Name), logfields.PassID(res.ID))

	defer func() {
		pass := history.Pass{
			ID:             res.ID,
			Collection:     c.cfg.Name,
			StartedAt:      start.UTC(),
			Duration:       time.Since(start),
			Added:          len(res.Diff.Added),
			Removed:        len(res.Diff.Removed),
			Modified:       len(res.Diff.Modified),
			Artifacts:      res.Artifacts,
			RenderFailures: len(res.Failures),
		}
		switch {
		case err != nil && errors.Is(err, context.Canceled):
			res.Outcome = history.OutcomeCanceled
		case err != nil:
			res.Outcome = history.OutcomeFailed
		case res.Outcome == "":
			res.Outcome = history.OutcomeSuccess
		}
		pass.Outcome = res.Outcome
		if err != nil {
			pass.Stage = string(stage)
			pass.Error = err.Error()
			log.Error("Sync pass failed",
				logfields.Stage(string(stage)),
				slog.String("category", string(ferrors.GetCategory(err))),
				logfields.Error(err))
			c.deps.Recorder.IncStageResult(string(stage), metrics.ResultFailed)
		}
		c.state.finish(pass)
		c.deps.Recorder.ObservePassDuration(c.cfg.Name, pass.Duration)
		c.deps.Recorder.IncPassOutcome(c.cfg.Name, outcomeLabel(res.Outcome))
		c.deps.Recorder.AddRenderFailures(c.cfg.Name, len(res.Failures))
		if herr := c.deps.History.Record(context.WithoutCancel(ctx), pass); herr != nil {
			log.Warn("Failed to record pass history", logfields.Error(herr))
		}
	}()

	c.state.setStage(stage)
	prev, loaded, persisted, prevPosts := c.state.committed()
	if !loaded {
		lookup, lerr := c.deps.Publisher.Snapshots().Load(ctx, c.cfg.Name)
		if lerr != nil {
			return res, lerr
		}
		prev, persisted = lookup.Snapshot, lookup.Found
		c.state.setLoaded(prev, persisted)
	}
	// A collection that has never been committed still gets its index pages,
	// even when the remote directory is empty.
	bootstrap := !persisted

	listing, err := c.list(ctx)
	if err != nil {
		return res, err
	}
	cur := model.Snapshot(listing)

	stage = StageDiffing
	c.state.setStage(stage)
	res.Diff = diff.Compute(prev, cur, c.deps.Filter)
	if res.Diff.Empty() && !bootstrap {
		res.Outcome = history.OutcomeUnchanged
		log.Debug("No changes")
		return res, nil
	}
	log.Info("Changes detected",
		slog.Int("added", len(res.Diff.Added)),
		slog.Int("removed", len(res.Diff.Removed)),
		slog.Int("modified", len(res.Diff.Modified)))

	stage = StageMirroring
	c.state.setStage(stage)
	files := cur.Files(c.deps.Filter)
	fetched, err := c.mirror.EnsurePresent(ctx, files, res.Diff.Changed())
	if err != nil {
		return res, err
	}
	log.Debug("Mirror up to date", logfields.Count(fetched))

	stage = StageGenerating
	c.state.setStage(stage)
	out, err := c.deps.Generator.Generate(generator.Input{
		Collection:        c.cfg.Name,
		Root:              c.cfg.Path,
		Mirror:            c.mirror,
		Files:             files,
		Diff:              res.Diff,
		PreviousPostCount: max(prevPosts, countPosts(prev.Files(c.deps.Filter))),
	})
	if err != nil {
		return res, err
	}
	res.Failures = out.Failures
	res.Artifacts = len(out.Artifacts)

	stage = StagePublishing
	c.state.setStage(stage)
	if err := c.publish(ctx, out, res.Diff.Removed); err != nil {
		return res, err
	}
	if err := c.deps.Publisher.Commit(ctx, c.cfg.Name, cur); err != nil {
		return res, err
	}
	c.state.commit(cur, out.PostCount)
	c.deps.Recorder.IncStageResult(string(StagePublishing), metrics.ResultSuccess)

	log.Info("Sync pass committed",
		logfields.Count(res.Artifacts),
		slog.Int("render_failures", len(res.Failures)),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	return res, nil
}

func (c *collection) list(ctx context.Context) ([]model.FileRecord, error) {
	listCtx := ctx
	if c.deps.FetchTimeout > 0 {
		var cancel context.CancelFunc
		listCtx, cancel = context.WithTimeout(ctx, c.deps.FetchTimeout)
		defer cancel()
	}
	listing, err := c.deps.Provider.List(listCtx, c.cfg.Path)
	if err != nil {
		return nil, ferrors.RemoteUnavailable(c.cfg.Path, err)
	}
	return listing, nil
}

// publish writes artifacts, then retracts removed sources and obsolete pages.
// A key written in this pass is never retracted in the same pass. Every step
// is attempted; the joined error reports all failures.
func (c *collection) publish(ctx context.Context, out *generator.Output, removed []model.FileRecord) error {
	written := make(map[string]bool, len(out.Artifacts))
	for _, a := range out.Artifacts {
		written[a.Key] = true
	}
	keep := func(key string) bool { return written[key] }

	var errs []error
	if err := c.deps.Publisher.Publish(ctx, c.cfg.Name, out.Artifacts); err != nil {
		errs = append(errs, err)
	}
	if len(removed) > 0 {
		if err := c.deps.Publisher.Retract(ctx, c.cfg.Name, removed, c.mirror, keep); err != nil {
			errs = append(errs, err)
		}
	}
	obsolete := make([]string, 0, len(out.Obsolete))
	for _, k := range out.Obsolete {
		if !keep(k) {
			obsolete = append(obsolete, k)
		}
	}
	if len(obsolete) > 0 {
		if err := c.deps.Publisher.RetractKeys(ctx, c.cfg.Name, obsolete); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func countPosts(files []model.FileRecord) int {
	n := 0
	for _, f := range files {
		if f.Ext() == "md" && f.Basename() != generator.NavigationFile {
			n++
		}
	}
	return n
}

func outcomeLabel(o history.Outcome) metrics.ResultLabel {
	switch o {
	case history.OutcomeSuccess:
		return metrics.ResultSuccess
	case history.OutcomeUnchanged:
		return metrics.ResultSkipped
	case history.OutcomeCanceled:
		return metrics.ResultCanceled
	default:
		return metrics.ResultFailed
	}
}

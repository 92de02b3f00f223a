package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/folio/internal/cache"
	"git.home.luguber.info/inful/folio/internal/config"
	"git.home.luguber.info/inful/folio/internal/daemon"
	"git.home.luguber.info/inful/folio/internal/generator"
	"git.home.luguber.info/inful/folio/internal/history"
	"git.home.luguber.info/inful/folio/internal/logfields"
	"git.home.luguber.info/inful/folio/internal/metrics"
	"git.home.luguber.info/inful/folio/internal/notify"
	"git.home.luguber.info/inful/folio/internal/publisher"
	"git.home.luguber.info/inful/folio/internal/remote"
	"git.home.luguber.info/inful/folio/internal/render"
	"git.home.luguber.info/inful/folio/internal/server"
	"git.home.luguber.info/inful/folio/internal/storage"
)

const janitorInterval = 30 * time.Second

// runtime holds the collaborators shared by the daemon, sync and serve commands.
type runtime struct {
	cfg      *config.Config
	store    storage.ArtifactStore
	registry *prometheus.Registry
	recorder metrics.Recorder
	events   *notify.NATSClient
	closers  []func() error
}

func newRuntime(ctx context.Context, cfg *config.Config) (*runtime, error) {
	rt := &runtime{cfg: cfg, recorder: metrics.NoopRecorder{}}
	if !cfg.HTTP.MetricsDisabled {
		rt.registry = prometheus.NewRegistry()
		rt.recorder = metrics.NewPrometheusRecorder(rt.registry)
	}

	store, err := storage.NewFromConfig(ctx, cfg.Storage, cfg.Sync.DataDir)
	if err != nil {
		return nil, err
	}
	rt.store = store
	rt.closers = append(rt.closers, store.Close)

	if cfg.Notify.Enabled {
		events, err := notify.Connect(cfg.Notify.NATSURL, cfg.Notify.Subject)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.events = events
		rt.closers = append(rt.closers, events.Close)
	}
	return rt, nil
}

// newDaemon wires the sync pipeline.
func (rt *runtime) newDaemon() (*daemon.Daemon, error) {
	cfg := rt.cfg
	provider, err := remote.NewFSProvider(cfg.Remote.Root)
	if err != nil {
		return nil, err
	}
	renderer, err := render.NewHTMLRenderer()
	if err != nil {
		return nil, err
	}

	pubOpts := []publisher.Option{publisher.WithRecorder(rt.recorder)}
	if rt.events != nil {
		pubOpts = append(pubOpts, publisher.WithNotifier(rt.events))
	}

	var log history.Log = history.NoopLog{}
	if !cfg.History.Disabled {
		sqlite, err := history.NewSQLiteLog(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		log = sqlite
		rt.closers = append(rt.closers, sqlite.Close)
	}

	return daemon.New(cfg, daemon.Deps{
		Provider:  provider,
		Publisher: publisher.New(rt.store, pubOpts...),
		Generator: generator.New(renderer, generator.Options{
			BlogTitle:     cfg.Site.BlogTitle,
			BaseURL:       cfg.Site.BaseURL,
			GAAccount:     cfg.Site.GAAccount,
			DisqusAccount: cfg.Site.DisqusAccount,
			PageSize:      cfg.Sync.PageSize,
			FeedSize:      cfg.Sync.FeedSize,
		}),
		History:      log,
		Recorder:     rt.recorder,
		FetchTimeout: cfg.Remote.FetchTimeout,
	})
}

// newCache wires the artifact cache over the configured backend and, when
// notifications are enabled, evicts entries named by published events.
func (rt *runtime) newCache(ctx context.Context) (*cache.ArtifactCache, error) {
	var backend cache.Backend
	switch rt.cfg.Cache.Type {
	case config.CacheRedis:
		redis, err := cache.NewRedisBackend(ctx, cache.RedisConfig{
			Addr:     rt.cfg.Cache.RedisAddr,
			Password: rt.cfg.Cache.RedisPassword,
			DB:       rt.cfg.Cache.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		backend = redis
	default:
		mem := cache.NewMemoryBackend()
		go mem.RunJanitor(ctx, janitorInterval)
		backend = mem
	}
	rt.closers = append(rt.closers, backend.Close)

	opts := []cache.Option{cache.WithRecorder(rt.recorder)}
	for _, col := range rt.cfg.Collections {
		opts = append(opts, cache.WithTTL(col.Name, col.TTL))
	}
	artifacts := cache.New(backend, rt.store, opts...)

	if rt.events != nil {
		if _, err := rt.events.Subscribe(notify.EvictHandler(ctx, artifacts)); err != nil {
			return nil, err
		}
	}
	return artifacts, nil
}

func (rt *runtime) serverOptions(artifacts server.ArtifactGetter, status server.StatusProvider) server.Options {
	names := make([]string, 0, len(rt.cfg.Collections))
	for _, col := range rt.cfg.Collections {
		names = append(names, col.Name)
	}
	return server.Options{
		Addr:        rt.cfg.HTTP.Addr,
		Collections: names,
		Artifacts:   artifacts,
		Status:      status,
		Registry:    rt.registry,
	}
}

// Close releases resources in reverse acquisition order.
func (rt *runtime) Close() {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		slog.Warn("Failed to release resources", logfields.Error(err))
	}
}

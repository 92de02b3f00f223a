// Package metrics provides the observability hooks of the sync pipeline and
// the artifact read path.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics can be switched on without nil checks:
//
//	recorder := metrics.NewPrometheusRecorder(registry)
//	d, err := daemon.New(cfg, daemon.Deps{Recorder: recorder, ...})
//
// The Prometheus implementation registers its collectors on the supplied
// registry; HTTPHandler exposes that registry for scraping.
package metrics

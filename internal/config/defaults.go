package config

import (
	"path/filepath"
	"time"
)

// Default values applied by Load.
const (
	DefaultBlogTitle       = "My blog"
	DefaultInterval        = 5 * time.Second
	DefaultDataDir         = "./folio-data"
	DefaultPageSize        = 5
	DefaultFeedSize        = 10
	DefaultFetchTimeout    = 30 * time.Second
	DefaultHTTPAddr        = ":8080"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultNotifySubject   = "folio.artifacts"
	DefaultDraftTTL        = 10 * time.Second
	DefaultLiveTTL         = 60 * time.Second
)

// DefaultCollections returns the draft and live collections.
func DefaultCollections() []CollectionConfig {
	return []CollectionConfig{
		{Name: "draft", Path: "/Draft", TTL: DefaultDraftTTL},
		{Name: "live", Path: "/Live", TTL: DefaultLiveTTL},
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Site.BlogTitle == "" {
		cfg.Site.BlogTitle = DefaultBlogTitle
	}

	if cfg.Sync.Interval <= 0 {
		cfg.Sync.Interval = DefaultInterval
	}
	if cfg.Sync.DataDir == "" {
		cfg.Sync.DataDir = DefaultDataDir
	}
	if cfg.Sync.PageSize <= 0 {
		cfg.Sync.PageSize = DefaultPageSize
	}
	if cfg.Sync.FeedSize <= 0 {
		cfg.Sync.FeedSize = DefaultFeedSize
	}

	if cfg.Remote.Type == "" {
		cfg.Remote.Type = RemoteFilesystem
	}
	if cfg.Remote.FetchTimeout <= 0 {
		cfg.Remote.FetchTimeout = DefaultFetchTimeout
	}

	if cfg.Storage.Type == "" {
		cfg.Storage.Type = StorageFilesystem
	}
	if cfg.Storage.Type == StorageFilesystem && cfg.Storage.Root == "" {
		cfg.Storage.Root = filepath.Join(cfg.Sync.DataDir, "artifacts")
	}
	if cfg.Cache.Type == "" {
		cfg.Cache.Type = CacheMemory
	}

	if len(cfg.Collections) == 0 {
		cfg.Collections = DefaultCollections()
	}
	for i := range cfg.Collections {
		col := &cfg.Collections[i]
		if col.TTL > 0 {
			continue
		}
		switch col.Name {
		case "draft":
			col.TTL = DefaultDraftTTL
		default:
			col.TTL = DefaultLiveTTL
		}
	}

	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = DefaultHTTPAddr
	}
	if cfg.HTTP.ShutdownTimeout <= 0 {
		cfg.HTTP.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Notify.Subject == "" {
		cfg.Notify.Subject = DefaultNotifySubject
	}
	if cfg.History.Path == "" {
		cfg.History.Path = filepath.Join(cfg.Sync.DataDir, "history.db")
	}
}

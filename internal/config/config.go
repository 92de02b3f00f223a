// Package config loads the folio configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/folio/internal/errors"
)

// Config is the root configuration.
type Config struct {
	Site        SiteConfig         `yaml:"site"`
	Sync        SyncConfig         `yaml:"sync"`
	Remote      RemoteConfig       `yaml:"remote"`
	Storage     StorageConfig      `yaml:"storage"`
	Cache       CacheConfig        `yaml:"cache"`
	Collections []CollectionConfig `yaml:"collections"`
	HTTP        HTTPConfig         `yaml:"http"`
	Notify      NotifyConfig       `yaml:"notify"`
	History     HistoryConfig      `yaml:"history"`
}

// SiteConfig is the context shared by every rendered page.
type SiteConfig struct {
	BlogTitle     string `yaml:"blog_title"`
	BaseURL       string `yaml:"base_url,omitempty"`
	GAAccount     string `yaml:"ga_account,omitempty"`
	DisqusAccount string `yaml:"disqus_account,omitempty"`
}

// SyncConfig controls the sync loop.
type SyncConfig struct {
	Interval time.Duration `yaml:"interval"`
	DataDir  string        `yaml:"data_dir"`
	PageSize int           `yaml:"page_size"`
	FeedSize int           `yaml:"feed_size"`
}

// RemoteType selects the remote file provider.
type RemoteType string

const (
	RemoteFilesystem RemoteType = "filesystem"
)

// RemoteConfig describes where source files come from.
type RemoteConfig struct {
	Type         RemoteType    `yaml:"type"`
	Root         string        `yaml:"root"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	// Watch triggers an early pass when the remote tree changes.
	Watch bool `yaml:"watch"`
}

// StorageType selects the durable artifact store.
type StorageType string

const (
	StorageMemory     StorageType = "memory"
	StorageFilesystem StorageType = "filesystem"
	StorageS3         StorageType = "s3"
)

// StorageConfig describes the durable artifact store.
type StorageConfig struct {
	Type      StorageType `yaml:"type"`
	Root      string      `yaml:"root,omitempty"`
	Bucket    string      `yaml:"bucket,omitempty"`
	Endpoint  string      `yaml:"endpoint,omitempty"`
	Region    string      `yaml:"region,omitempty"`
	AccessKey string      `yaml:"access_key,omitempty"`
	SecretKey string      `yaml:"secret_key,omitempty"`
	Prefix    string      `yaml:"prefix,omitempty"`
}

// CacheType selects the artifact cache backend.
type CacheType string

const (
	CacheMemory CacheType = "memory"
	CacheRedis  CacheType = "redis"
)

// CacheConfig describes the artifact cache backend.
type CacheConfig struct {
	Type          CacheType `yaml:"type"`
	RedisAddr     string    `yaml:"redis_addr,omitempty"`
	RedisPassword string    `yaml:"redis_password,omitempty"`
	RedisDB       int       `yaml:"redis_db,omitempty"`
}

// CollectionConfig names a collection, its remote directory and cache TTL.
type CollectionConfig struct {
	Name string        `yaml:"name"`
	Path string        `yaml:"path"`
	TTL  time.Duration `yaml:"ttl"`
}

// HTTPConfig controls the read path server.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
	// MetricsDisabled hides /metrics.
	MetricsDisabled bool          `yaml:"metrics_disabled,omitempty"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout,omitempty"`
}

// NotifyConfig enables change events over NATS.
type NotifyConfig struct {
	Enabled bool   `yaml:"enabled"`
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// HistoryConfig controls the sqlite pass log.
type HistoryConfig struct {
	Disabled bool   `yaml:"disabled,omitempty"`
	Path     string `yaml:"path,omitempty"`
}

// Collection returns the named collection.
func (c *Config) Collection(name string) (CollectionConfig, bool) {
	for _, col := range c.Collections {
		if col.Name == name {
			return col, true
		}
	}
	return CollectionConfig{}, false
}

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, ferrors.ConfigNotFound(configPath)
	}

	// #nosec G304 - configPath is provided by the operator
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes configuration from YAML, expanding ${VAR} references and
// applying defaults before validation.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, ferrors.ValidationFailed("config", fmt.Sprintf("failed to unmarshal config: %v", err))
	}

	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	data := []byte(exampleConfig)
	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// exampleConfig is written by Init. Durations are strings because yaml.v3
// only decodes time.Duration from its string form.
const exampleConfig = `site:
  blog_title: My blog
  base_url: http://localhost:8080
  # ga_account: UA-000000-1
  # disqus_account: myblog

sync:
  interval: 5s
  data_dir: ./folio-data
  page_size: 5
  feed_size: 10

remote:
  type: filesystem
  root: ./content
  fetch_timeout: 30s
  watch: true

storage:
  type: filesystem
  # type: s3
  # bucket: folio-artifacts
  # endpoint: ${S3_ENDPOINT}
  # access_key: ${S3_ACCESS_KEY}
  # secret_key: ${S3_SECRET_KEY}

cache:
  type: memory
  # type: redis
  # redis_addr: localhost:6379

collections:
  - name: draft
    path: /Draft
    ttl: 10s
  - name: live
    path: /Live
    ttl: 60s

http:
  addr: ":8080"

notify:
  enabled: false
  nats_url: nats://localhost:4222
  subject: folio.artifacts
`

package config

import (
	"fmt"
	"regexp"

	ferrors "git.home.luguber.info/inful/folio/internal/errors"
)

var collectionName = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

func validate(cfg *Config) error {
	switch cfg.Remote.Type {
	case RemoteFilesystem:
		if cfg.Remote.Root == "" {
			return ferrors.ConfigRequired("remote.root")
		}
	default:
		return ferrors.ValidationFailed("remote.type", fmt.Sprintf("unsupported remote type %q", cfg.Remote.Type))
	}

	switch cfg.Storage.Type {
	case StorageMemory, StorageFilesystem:
	case StorageS3:
		if cfg.Storage.Bucket == "" {
			return ferrors.ConfigRequired("storage.bucket")
		}
	default:
		return ferrors.ValidationFailed("storage.type", fmt.Sprintf("unsupported storage type %q", cfg.Storage.Type))
	}

	switch cfg.Cache.Type {
	case CacheMemory:
	case CacheRedis:
		if cfg.Cache.RedisAddr == "" {
			return ferrors.ConfigRequired("cache.redis_addr")
		}
	default:
		return ferrors.ValidationFailed("cache.type", fmt.Sprintf("unsupported cache type %q", cfg.Cache.Type))
	}

	seen := make(map[string]bool, len(cfg.Collections))
	for _, col := range cfg.Collections {
		if !collectionName.MatchString(col.Name) {
			return ferrors.ValidationFailed("collections.name", fmt.Sprintf("invalid collection name %q", col.Name))
		}
		if seen[col.Name] {
			return ferrors.ValidationFailed("collections.name", fmt.Sprintf("duplicate collection %q", col.Name))
		}
		seen[col.Name] = true
		if col.Path == "" {
			return ferrors.ConfigRequired(fmt.Sprintf("collections[%s].path", col.Name))
		}
	}

	if cfg.Notify.Enabled && cfg.Notify.NATSURL == "" {
		return ferrors.ConfigRequired("notify.nats_url")
	}
	return nil
}

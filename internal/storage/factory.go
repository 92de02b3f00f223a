package storage

import (
	"context"
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/folio/internal/config"
)

// NewFromConfig creates an ArtifactStore based on the storage config type.
func NewFromConfig(ctx context.Context, cfg config.StorageConfig, dataDir string) (ArtifactStore, error) {
	switch cfg.Type {
	case config.StorageMemory:
		return NewMemoryStore(), nil
	case config.StorageFilesystem, "":
		root := cfg.Root
		if root == "" {
			root = filepath.Join(dataDir, "artifacts")
		}
		return NewFSStore(root)
	case config.StorageS3:
		return NewS3Store(ctx, S3Config{
			Endpoint:  cfg.Endpoint,
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Prefix:    cfg.Prefix,
		})
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

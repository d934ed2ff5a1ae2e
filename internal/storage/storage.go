// Package storage keeps uploaded images (recipe photos and avatars) in a blob
// store and hands back the public URL for each key.
package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pageza/recipe-site/backend/config"
)

// Key prefixes for the two kinds of uploads.
const (
	RecipeImagePrefix = "recipe_images"
	AvatarPrefix      = "avatars"
)

// BlobStore saves and removes objects addressed by key.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// NewKey returns a fresh object key such as "recipe_images/<uuid>.png".
func NewKey(prefix, ext string) string {
	return fmt.Sprintf("%s/%s%s", prefix, uuid.New().String(), ext)
}

// New builds the store selected by cfg.StorageBackend.
func New(ctx context.Context, cfg *config.Config, zlog *zap.Logger) (BlobStore, error) {
	switch cfg.StorageBackend {
	case "s3":
		s3cfg, err := config.NewS3Config(ctx, cfg)
		if err != nil {
			return nil, err
		}
		zlog.Info("using s3 media storage", zap.String("bucket", s3cfg.BucketName), zap.String("region", s3cfg.Region))
		return NewS3Store(s3cfg.Client, s3cfg.BucketName, s3cfg.Region), nil
	case "local", "":
		zlog.Info("using local media storage", zap.String("root", cfg.MediaRoot), zap.String("url", cfg.MediaURL))
		return NewLocalStore(cfg.MediaRoot, cfg.MediaURL)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.StorageBackend)
	}
}

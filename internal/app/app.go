// Package app assembles the database, caches, blob store and services shared
// by the API server and the operator CLI.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pageza/recipe-site/backend/config"
	"github.com/pageza/recipe-site/backend/internal/api"
	"github.com/pageza/recipe-site/backend/internal/database"
	"github.com/pageza/recipe-site/backend/internal/middleware"
	"github.com/pageza/recipe-site/backend/internal/service"
	"github.com/pageza/recipe-site/backend/internal/storage"
	"github.com/pageza/recipe-site/backend/migrations"
)

// App holds every long-lived dependency. Redis is nil when it is not
// configured or unreachable.
type App struct {
	Config *config.Config
	Logger *zap.Logger
	DB     *gorm.DB
	Redis  *redis.Client
	Blobs  storage.BlobStore

	Auth     *service.AuthService
	Profiles *service.ProfileService
	Recipes  *service.RecipeService
	Taxonomy *service.TaxonomyService
}

// New connects to the database and optional Redis and builds the services.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	db, err := database.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	a := &App{Config: cfg, Logger: logger, DB: db}

	if database.RedisConfigured(cfg) {
		client, err := database.NewRedisClient(ctx, cfg, logger)
		if err != nil {
			// rate limiting and token revocation are optional
			logger.Warn("redis unavailable, continuing without it", zap.Error(err))
		} else {
			a.Redis = client
		}
	}

	blobs, err := storage.New(ctx, cfg, logger)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to initialize media storage: %w", err)
	}
	a.Blobs = blobs

	var revocations service.RevocationStore
	if a.Redis != nil {
		revocations = service.NewRedisRevocationStore(a.Redis)
	}

	a.Taxonomy = service.NewTaxonomyService(db, logger)
	a.Profiles = service.NewProfileService(db, blobs, logger)
	a.Recipes = service.NewRecipeService(db, blobs, a.Taxonomy, logger)
	a.Auth = service.NewAuthService(db, a.Profiles, revocations, service.AuthOptions{
		JWTSecret:          cfg.JWTSecret,
		TokenTTL:           cfg.TokenTTL,
		RequireUniqueEmail: cfg.RequireUniqueEmail,
	}, logger)

	return a, nil
}

// Migrate brings the schema up to date.
func (a *App) Migrate() error {
	return database.RunMigrations(a.DB, migrations.FS, a.Logger)
}

// Services returns the services in the shape the HTTP layer expects.
func (a *App) Services() api.Services {
	return api.Services{
		Auth:     a.Auth,
		Profiles: a.Profiles,
		Recipes:  a.Recipes,
		Taxonomy: a.Taxonomy,
	}
}

// APIOptions wires the recipe rate limiters when Redis is available.
func (a *App) APIOptions() api.Options {
	opts := api.Options{DB: a.DB, Logger: a.Logger}
	if a.Redis != nil {
		opts.CreationLimiter = middleware.NewRecipeCreationRateLimiter(a.Redis, a.Logger)
		opts.ModificationLimiter = middleware.NewRecipeModificationRateLimiter(a.Redis, a.Logger)
	}
	return opts
}

// Close releases the database pool and the Redis client.
func (a *App) Close() error {
	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}

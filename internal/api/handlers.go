package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pageza/recipe-site/backend/internal/database"
	"github.com/pageza/recipe-site/backend/internal/middleware"
	"github.com/pageza/recipe-site/backend/internal/service"
)

// Services are the application services the HTTP layer talks to.
type Services struct {
	Auth     service.IAuthService
	Profiles service.IProfileService
	Recipes  service.IRecipeService
	Taxonomy service.ITaxonomyService
}

// Options carries the optional pieces of the HTTP layer. Nil limiters disable
// rate limiting; a nil DB makes the health check skip the database ping.
type Options struct {
	DB                  *gorm.DB
	CreationLimiter     *middleware.RateLimiter
	ModificationLimiter *middleware.RateLimiter
	Logger              *zap.Logger
}

// HealthCheck returns the health status of the API
func HealthCheck(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := database.HealthCheck(ctx, db); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status": "unhealthy",
					"error":  err.Error(),
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Recipe API is running",
			"version": "v1.0.0",
		})
	}
}

// RegisterRoutes registers all API routes under /api/v1
func RegisterRoutes(router *gin.Engine, svc Services, opts Options) *gin.RouterGroup {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	authHandler := NewAuthHandler(svc.Auth)
	recipeHandler := NewRecipeHandler(svc.Recipes, svc.Auth, opts.CreationLimiter, opts.ModificationLimiter)
	profileHandler := NewProfileHandler(svc.Profiles, svc.Auth)
	taxonomyHandler := NewTaxonomyHandler(svc.Taxonomy, svc.Auth)

	router.GET("/health", HealthCheck(opts.DB))

	v1 := router.Group("/api/v1")
	v1.GET("/health", HealthCheck(opts.DB))
	authHandler.RegisterRoutes(v1)
	recipeHandler.RegisterRoutes(v1)
	profileHandler.RegisterRoutes(v1)
	taxonomyHandler.RegisterRoutes(v1)

	if opts.CreationLimiter == nil {
		opts.Logger.Warn("recipe rate limiting disabled")
	}
	return v1
}

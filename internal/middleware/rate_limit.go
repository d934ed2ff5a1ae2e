package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitConfig defines configuration for rate limiting
type RateLimitConfig struct {
	// Window is the time window for rate limiting
	Window time.Duration
	// Limit is the maximum number of requests allowed in the window
	Limit int
	// Key prefix for Redis keys
	KeyPrefix string
}

// RateLimiter is a fixed-window counter kept in Redis. A nil *RateLimiter
// lets every request through.
type RateLimiter struct {
	redis  *redis.Client
	config RateLimitConfig
	logger *zap.Logger
}

// NewRateLimiter creates a new rate limiter instance
func NewRateLimiter(redisClient *redis.Client, config RateLimitConfig, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		config: config,
		logger: logger,
	}
}

// NewRecipeCreationRateLimiter allows 20 new recipes per user per hour.
func NewRecipeCreationRateLimiter(redisClient *redis.Client, logger *zap.Logger) *RateLimiter {
	return NewRateLimiter(redisClient, RateLimitConfig{
		Window:    time.Hour,
		Limit:     20,
		KeyPrefix: "rate_limit:recipe_creation",
	}, logger)
}

// NewRecipeModificationRateLimiter allows 10 edits per recipe per user per hour.
func NewRecipeModificationRateLimiter(redisClient *redis.Client, logger *zap.Logger) *RateLimiter {
	return NewRateLimiter(redisClient, RateLimitConfig{
		Window:    time.Hour,
		Limit:     10,
		KeyPrefix: "rate_limit:recipe_modification",
	}, logger)
}

// RateLimitMiddleware limits requests per authenticated user.
func (rl *RateLimiter) RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
			c.Abort()
			return
		}
		rl.enforce(c, userID.String(), "requests")
	}
}

// PerRecipeRateLimitMiddleware limits requests per user and recipe.
func (rl *RateLimiter) PerRecipeRateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
			c.Abort()
			return
		}

		recipeID := c.Param("id")
		if recipeID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "recipe ID is required"})
			c.Abort()
			return
		}
		rl.enforce(c, fmt.Sprintf("%s:%s", userID, recipeID), "modifications per recipe")
	}
}

func (rl *RateLimiter) enforce(c *gin.Context, key, what string) {
	if rl == nil || rl.redis == nil {
		c.Next()
		return
	}

	allowed, remaining, resetTime, err := rl.IsAllowed(c.Request.Context(), key)
	if err != nil {
		// fail open
		rl.logger.Warn("rate limit check failed", zap.String("prefix", rl.config.KeyPrefix), zap.Error(err))
		c.Header("X-RateLimit-Error", "rate limit check failed")
		c.Next()
		return
	}

	c.Header("X-RateLimit-Limit", strconv.Itoa(rl.config.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

	if !allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":       "rate limit exceeded",
			"message":     fmt.Sprintf("You have exceeded the rate limit of %d %s per %v", rl.config.Limit, what, rl.config.Window),
			"retry_after": int(time.Until(resetTime).Seconds()),
		})
		c.Abort()
		return
	}

	c.Next()
}

// IsAllowed counts a request for key.
// Returns: allowed, remaining requests, reset time, error
func (rl *RateLimiter) IsAllowed(ctx context.Context, key string) (bool, int, time.Time, error) {
	now := time.Now()
	windowStart := now.Truncate(rl.config.Window)
	redisKey := fmt.Sprintf("%s:%s:%d", rl.config.KeyPrefix, key, windowStart.Unix())

	pipe := rl.redis.Pipeline()
	incrCmd := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, rl.config.Window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, time.Time{}, err
	}

	count := int(incrCmd.Val())
	remaining := rl.config.Limit - count
	if remaining < 0 {
		remaining = 0
	}

	return count <= rl.config.Limit, remaining, windowStart.Add(rl.config.Window), nil
}

package service

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/pageza/recipe-site/backend/internal/models"
	"github.com/pageza/recipe-site/backend/internal/types"
)

// IAuthService defines the interface for account and token operations
type IAuthService interface {
	Register(ctx context.Context, req *types.RegisterRequest) (*RegisterResult, error)
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	Logout(ctx context.Context, claims *types.TokenClaims) error
	ValidateToken(ctx context.Context, token string) (*types.TokenClaims, error)
	GenerateToken(user *models.User) (string, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	SetStaff(ctx context.Context, username string, staff bool) error
}

// IProfileService defines the interface for user profile operations
type IProfileService interface {
	EnsureProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, bool, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*ProfileView, error)
	GetPublicProfile(ctx context.Context, username string) (*ProfileView, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req *types.UpdateProfileRequest, avatar *types.Upload) (*models.UserProfile, error)
}

// IRecipeService defines the interface for recipe authoring and queries
type IRecipeService interface {
	CreateRecipe(ctx context.Context, authorID uuid.UUID, req *types.RecipeRequest, image *types.Upload) (*models.Recipe, error)
	UpdateRecipe(ctx context.Context, id, requesterID uuid.UUID, req *types.RecipeRequest, image *types.Upload) (*models.Recipe, error)
	EditForm(ctx context.Context, id, requesterID uuid.UUID) (*EditForm, error)
	PrepareDelete(ctx context.Context, id, requesterID uuid.UUID) (*models.Recipe, error)
	DeleteRecipe(ctx context.Context, id, requesterID uuid.UUID, confirm bool) error
	GetRecipe(ctx context.Context, id uuid.UUID) (*models.Recipe, error)
	ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]models.Recipe, error)
	HomeFeed(ctx context.Context, rng *rand.Rand) ([]models.Recipe, error)
}

// ITaxonomyService defines the interface for category and ingredient lookups
type ITaxonomyService interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListIngredients(ctx context.Context) ([]models.Ingredient, error)
	CreateCategory(ctx context.Context, name string) (*models.Category, error)
	CreateIngredient(ctx context.Context, name string) (*models.Ingredient, error)
}

// RevocationStore remembers logged-out token ids until they would expire anyway.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

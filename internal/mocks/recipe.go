package mocks

import (
	"context"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/pageza/recipe-site/backend/internal/models"
	"github.com/pageza/recipe-site/backend/internal/service"
	"github.com/pageza/recipe-site/backend/internal/types"
)

// MockRecipeService is a mock implementation of service.IRecipeService
type MockRecipeService struct {
	mock.Mock
}

var _ service.IRecipeService = (*MockRecipeService)(nil)

func (m *MockRecipeService) CreateRecipe(ctx context.Context, authorID uuid.UUID, req *types.RecipeRequest, image *types.Upload) (*models.Recipe, error) {
	args := m.Called(ctx, authorID, req, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Recipe), args.Error(1)
}

func (m *MockRecipeService) UpdateRecipe(ctx context.Context, id, requesterID uuid.UUID, req *types.RecipeRequest, image *types.Upload) (*models.Recipe, error) {
	args := m.Called(ctx, id, requesterID, req, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Recipe), args.Error(1)
}

func (m *MockRecipeService) EditForm(ctx context.Context, id, requesterID uuid.UUID) (*service.EditForm, error) {
	args := m.Called(ctx, id, requesterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.EditForm), args.Error(1)
}

func (m *MockRecipeService) PrepareDelete(ctx context.Context, id, requesterID uuid.UUID) (*models.Recipe, error) {
	args := m.Called(ctx, id, requesterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Recipe), args.Error(1)
}

func (m *MockRecipeService) DeleteRecipe(ctx context.Context, id, requesterID uuid.UUID, confirm bool) error {
	args := m.Called(ctx, id, requesterID, confirm)
	return args.Error(0)
}

func (m *MockRecipeService) GetRecipe(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Recipe), args.Error(1)
}

func (m *MockRecipeService) ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]models.Recipe, error) {
	args := m.Called(ctx, authorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Recipe), args.Error(1)
}

func (m *MockRecipeService) HomeFeed(ctx context.Context, rng *rand.Rand) ([]models.Recipe, error) {
	args := m.Called(ctx, rng)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Recipe), args.Error(1)
}

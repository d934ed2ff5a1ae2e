package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/pageza/recipe-site/backend/internal/models"
	"github.com/pageza/recipe-site/backend/internal/service"
)

// MockTaxonomyService is a mock implementation of service.ITaxonomyService
type MockTaxonomyService struct {
	mock.Mock
}

var _ service.ITaxonomyService = (*MockTaxonomyService)(nil)

func (m *MockTaxonomyService) ListCategories(ctx context.Context) ([]models.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Category), args.Error(1)
}

func (m *MockTaxonomyService) ListIngredients(ctx context.Context) ([]models.Ingredient, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Ingredient), args.Error(1)
}

func (m *MockTaxonomyService) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockTaxonomyService) CreateIngredient(ctx context.Context, name string) (*models.Ingredient, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ingredient), args.Error(1)
}

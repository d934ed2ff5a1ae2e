package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/pageza/recipe-site/backend/internal/models"
	"github.com/pageza/recipe-site/backend/internal/service"
	"github.com/pageza/recipe-site/backend/internal/types"
)

// MockProfileService is a mock implementation of service.IProfileService
type MockProfileService struct {
	mock.Mock
}

var _ service.IProfileService = (*MockProfileService)(nil)

func (m *MockProfileService) EnsureProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, bool, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.UserProfile), args.Bool(1), args.Error(2)
}

func (m *MockProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (*service.ProfileView, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ProfileView), args.Error(1)
}

func (m *MockProfileService) GetPublicProfile(ctx context.Context, username string) (*service.ProfileView, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ProfileView), args.Error(1)
}

func (m *MockProfileService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *types.UpdateProfileRequest, avatar *types.Upload) (*models.UserProfile, error) {
	args := m.Called(ctx, userID, req, avatar)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProfile), args.Error(1)
}

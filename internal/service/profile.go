package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/recipe-site/backend/internal/models"
	"github.com/pageza/recipe-site/backend/internal/storage"
	"github.com/pageza/recipe-site/backend/internal/types"
)

// ProfileView is a user together with their profile and recipes.
type ProfileView struct {
	User    *models.User        `json:"user"`
	Profile *models.UserProfile `json:"profile"`
	Recipes []models.Recipe     `json:"recipes"`
}

// ProfileService handles user profile operations
type ProfileService struct {
	db     *gorm.DB
	blobs  storage.BlobStore
	logger *zap.Logger
}

// Ensure ProfileService implements IProfileService
var _ IProfileService = (*ProfileService)(nil)

// NewProfileService creates a new ProfileService instance
func NewProfileService(db *gorm.DB, blobs storage.BlobStore, logger *zap.Logger) *ProfileService {
	return &ProfileService{
		db:     db,
		blobs:  blobs,
		logger: logger,
	}
}

// EnsureProfile returns the user's profile, inserting an empty one if there is
// none yet. created reports whether this call inserted it. Safe to call
// concurrently: the insert is ON CONFLICT (user_id) DO NOTHING.
func (s *ProfileService) EnsureProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, bool, error) {
	return ensureProfile(s.db.WithContext(ctx), userID)
}

func ensureProfile(db *gorm.DB, userID uuid.UUID) (*models.UserProfile, bool, error) {
	var user models.User
	if err := db.Select("id").First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrUserNotFound
		}
		return nil, false, err
	}

	profile := models.UserProfile{UserID: userID}
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&profile)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected > 0 {
		return &profile, true, nil
	}

	var existing models.UserProfile
	if err := db.Where("user_id = ?", userID).First(&existing).Error; err != nil {
		return nil, false, err
	}
	return &existing, false, nil
}

// GetProfile returns the user's own profile page: account, profile and recipes.
func (s *ProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (*ProfileView, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.view(ctx, &user)
}

// GetPublicProfile retrieves a user's profile by username
func (s *ProfileService) GetPublicProfile(ctx context.Context, username string) (*ProfileView, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "username = ?", username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.view(ctx, &user)
}

func (s *ProfileService) view(ctx context.Context, user *models.User) (*ProfileView, error) {
	profile, created, err := s.EnsureProfile(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if created {
		s.logger.Info("created missing profile", zap.String("user_id", user.ID.String()))
	}
	recipes, err := listByAuthor(s.db.WithContext(ctx), user.ID)
	if err != nil {
		return nil, err
	}
	return &ProfileView{User: user, Profile: profile, Recipes: recipes}, nil
}

// UpdateProfile changes bio and avatar. Fields left nil in req are kept;
// credentials are never touched here.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *types.UpdateProfileRequest, avatar *types.Upload) (*models.UserProfile, error) {
	verr := &ValidationError{}
	var img *storage.Image
	if avatar != nil && len(avatar.Data) > 0 {
		if req.ClearAvatar {
			verr.Add("avatar", "Please either submit a file or check the clear checkbox, not both.")
		} else if i, err := storage.ValidateImage(avatar.Data); err != nil {
			verr.Add("avatar", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
		} else {
			img = i
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	var updated models.UserProfile
	var uploaded, replaced string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		profile, _, err := ensureProfile(tx, userID)
		if err != nil {
			return err
		}

		if req.Bio != nil {
			profile.Bio = *req.Bio
		}
		switch {
		case img != nil:
			key := storage.NewKey(storage.AvatarPrefix, img.Ext)
			url, err := s.blobs.Put(ctx, key, img.Data, img.ContentType)
			if err != nil {
				return err
			}
			uploaded = key
			replaced = profile.AvatarKey
			profile.AvatarKey, profile.AvatarURL = key, url
		case req.ClearAvatar:
			replaced = profile.AvatarKey
			profile.AvatarKey, profile.AvatarURL = "", ""
		}

		if err := tx.Save(profile).Error; err != nil {
			return err
		}
		updated = *profile
		return nil
	})
	if err != nil {
		s.removeBlob(ctx, uploaded)
		return nil, err
	}

	s.removeBlob(ctx, replaced)
	return &updated, nil
}

func (s *ProfileService) removeBlob(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.blobs.Delete(ctx, key); err != nil {
		s.logger.Warn("failed to remove avatar", zap.String("key", key), zap.Error(err))
	}
}

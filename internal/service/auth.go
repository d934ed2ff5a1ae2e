package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pageza/recipe-site/backend/internal/database"
	"github.com/pageza/recipe-site/backend/internal/models"
	"github.com/pageza/recipe-site/backend/internal/types"
)

const (
	minPasswordLength = 8
	maxUsernameLength = 150
)

var (
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
	validate        = validator.New()
)

// AuthOptions configures token issuing and registration policy.
type AuthOptions struct {
	JWTSecret string
	TokenTTL  time.Duration
	// RequireUniqueEmail rejects a registration whose email is already taken.
	RequireUniqueEmail bool
}

// RegisterResult is everything registration produced. ProfileCreated is false
// only if a profile already existed for the new user.
type RegisterResult struct {
	User           *models.User        `json:"user"`
	Profile        *models.UserProfile `json:"profile"`
	ProfileCreated bool                `json:"profile_created"`
	Token          string              `json:"token"`
}

type LoginResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

type AuthService struct {
	db          *gorm.DB
	profiles    IProfileService
	revocations RevocationStore
	opts        AuthOptions
	logger      *zap.Logger
}

var _ IAuthService = (*AuthService)(nil)

// NewAuthService creates an AuthService. revocations may be nil, in which case
// logout only relies on the client dropping its token.
func NewAuthService(db *gorm.DB, profiles IProfileService, revocations RevocationStore, opts AuthOptions, logger *zap.Logger) *AuthService {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	return &AuthService{
		db:          db,
		profiles:    profiles,
		revocations: revocations,
		opts:        opts,
		logger:      logger,
	}
}

// Register creates the account, then creates its profile as a separate step,
// then logs the new user in.
func (s *AuthService) Register(ctx context.Context, req *types.RegisterRequest) (*RegisterResult, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)

	verr := &ValidationError{}
	validateUsername(verr, username)
	if err := validate.Var(email, "required,email"); err != nil {
		verr.Add("email", "Enter a valid email address.")
	}
	validatePassword(verr, username, req.Password1, req.Password2)

	db := s.db.WithContext(ctx)
	if !verr.Has("username") {
		var count int64
		if err := db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			verr.Add("username", "A user with that username already exists.")
		}
	}
	if s.opts.RequireUniqueEmail && !verr.Has("email") {
		var count int64
		if err := db.Model(&models.User{}).Where("LOWER(email) = LOWER(?)", email).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			verr.Add("email", "A user with that email already exists.")
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password1), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := db.Create(&user).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fieldError("username", "A user with that username already exists.")
		}
		return nil, err
	}

	profile, created, err := s.profiles.EnsureProfile(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}

	token, err := s.GenerateToken(&user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID.String()), zap.String("username", username))
	return &RegisterResult{
		User:           &user,
		Profile:        profile,
		ProfileCreated: created,
		Token:          token,
	}, nil
}

func validateUsername(verr *ValidationError, username string) {
	switch {
	case username == "":
		verr.Add("username", "This field is required.")
	case utf8.RuneCountInString(username) > maxUsernameLength:
		verr.Add("username", fmt.Sprintf("Ensure this value has at most %d characters.", maxUsernameLength))
	case !usernamePattern.MatchString(username):
		verr.Add("username", "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
	}
}

func validatePassword(verr *ValidationError, username, password1, password2 string) {
	if password1 == "" {
		verr.Add("password1", "This field is required.")
		return
	}
	if password1 != password2 {
		verr.Add("password2", "The two password fields didn't match.")
		return
	}
	if utf8.RuneCountInString(password1) < minPasswordLength {
		verr.Add("password2", fmt.Sprintf("This password is too short. It must contain at least %d characters.", minPasswordLength))
	}
	if strings.Trim(password1, "0123456789") == "" {
		verr.Add("password2", "This password is entirely numeric.")
	}
	if username != "" && strings.EqualFold(password1, username) {
		verr.Add("password2", "The password is too similar to the username.")
	}
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.GenerateToken(&user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: &user, Token: token}, nil
}

// Logout revokes the token until it would have expired.
func (s *AuthService) Logout(ctx context.Context, claims *types.TokenClaims) error {
	if s.revocations == nil || claims == nil || claims.ID == "" {
		return nil
	}
	ttl := s.opts.TokenTTL
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if ttl <= 0 {
		return nil
	}
	return s.revocations.Revoke(ctx, claims.ID, ttl)
}

// GenerateToken issues a signed HS256 token for user.
func (s *AuthService) GenerateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &types.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.opts.TokenTTL)),
		},
		UserID:   user.ID,
		Username: user.Username,
		IsStaff:  user.IsStaff,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.opts.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*types.TokenClaims, error) {
	claims := &types.TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.opts.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == uuid.Nil {
		return nil, ErrInvalidToken
	}

	if s.revocations != nil && claims.ID != "" {
		revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("check token revocation: %w", err)
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}
	return claims, nil
}

func (s *AuthService) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *AuthService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "username = ?", username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SetStaff grants or removes the right to manage categories and ingredients.
func (s *AuthService) SetStaff(ctx context.Context, username string, staff bool) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Update("is_staff", staff)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	s.logger.Info("staff flag changed", zap.String("username", username), zap.Bool("staff", staff))
	return nil
}

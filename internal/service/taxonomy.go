package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pageza/recipe-site/backend/internal/database"
	"github.com/pageza/recipe-site/backend/internal/models"
)

const (
	categoriesCacheKey  = "categories"
	ingredientsCacheKey = "ingredients"

	// taxonomyCacheTTL bounds how long rows added by another process (recipectl
	// seed) stay invisible.
	taxonomyCacheTTL = time.Minute
)

type cachedList struct {
	loadedAt time.Time
	value    interface{}
}

// TaxonomyService serves the Category and Ingredient lookup tables. Lists are
// read often and change rarely, so they are cached.
type TaxonomyService struct {
	db     *gorm.DB
	cache  *lru.Cache
	logger *zap.Logger
}

var _ ITaxonomyService = (*TaxonomyService)(nil)

func NewTaxonomyService(db *gorm.DB, logger *zap.Logger) *TaxonomyService {
	// lru.New only fails for a non-positive size
	cache, _ := lru.New(8)
	return &TaxonomyService{db: db, cache: cache, logger: logger}
}

// ListCategories returns every category ordered by name.
func (s *TaxonomyService) ListCategories(ctx context.Context) ([]models.Category, error) {
	if v, ok := s.cached(categoriesCacheKey); ok {
		return append([]models.Category(nil), v.([]models.Category)...), nil
	}
	var categories []models.Category
	if err := s.db.WithContext(ctx).Order("name").Find(&categories).Error; err != nil {
		return nil, err
	}
	s.cache.Add(categoriesCacheKey, cachedList{loadedAt: time.Now(), value: categories})
	return append([]models.Category(nil), categories...), nil
}

// ListIngredients returns every ingredient ordered by name.
func (s *TaxonomyService) ListIngredients(ctx context.Context) ([]models.Ingredient, error) {
	if v, ok := s.cached(ingredientsCacheKey); ok {
		return append([]models.Ingredient(nil), v.([]models.Ingredient)...), nil
	}
	var ingredients []models.Ingredient
	if err := s.db.WithContext(ctx).Order("name").Find(&ingredients).Error; err != nil {
		return nil, err
	}
	s.cache.Add(ingredientsCacheKey, cachedList{loadedAt: time.Now(), value: ingredients})
	return append([]models.Ingredient(nil), ingredients...), nil
}

func (s *TaxonomyService) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	name, err := validateTaxonomyName(name)
	if err != nil {
		return nil, err
	}
	category := models.Category{Name: name}
	if err := s.create(ctx, &category, "Category"); err != nil {
		return nil, err
	}
	s.cache.Remove(categoriesCacheKey)
	s.logger.Info("created category", zap.String("name", name))
	return &category, nil
}

func (s *TaxonomyService) CreateIngredient(ctx context.Context, name string) (*models.Ingredient, error) {
	name, err := validateTaxonomyName(name)
	if err != nil {
		return nil, err
	}
	ingredient := models.Ingredient{Name: name}
	if err := s.create(ctx, &ingredient, "Ingredient"); err != nil {
		return nil, err
	}
	s.cache.Remove(ingredientsCacheKey)
	s.logger.Info("created ingredient", zap.String("name", name))
	return &ingredient, nil
}

func (s *TaxonomyService) create(ctx context.Context, row interface{}, label string) error {
	err := s.db.WithContext(ctx).Create(row).Error
	if database.IsUniqueViolation(err) {
		return fieldError("name", label+" with this name already exists.")
	}
	return err
}

func (s *TaxonomyService) cached(key string) (interface{}, bool) {
	v, ok := s.cache.Get(key)
	if !ok {
		return nil, false
	}
	entry := v.(cachedList)
	if time.Since(entry.loadedAt) > taxonomyCacheTTL {
		s.cache.Remove(key)
		return nil, false
	}
	return entry.value, true
}

func validateTaxonomyName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fieldError("name", "This field is required.")
	}
	if utf8.RuneCountInString(name) > models.MaxNameLength {
		return "", fieldError("name", "Ensure this value has at most 100 characters.")
	}
	return name, nil
}

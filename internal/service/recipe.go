package service

import (
	"context"
	"errors"
	"math/rand/v2"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/recipe-site/backend/internal/models"
	"github.com/pageza/recipe-site/backend/internal/storage"
	"github.com/pageza/recipe-site/backend/internal/types"
)

// EditForm is what an author needs to re-present the recipe form.
type EditForm struct {
	Recipe      *models.Recipe      `json:"recipe"`
	Categories  []models.Category   `json:"categories"`
	Ingredients []models.Ingredient `json:"ingredients"`
	Units       []UnitOption        `json:"units"`
}

type UnitOption struct {
	Code  models.Unit `json:"code"`
	Label string      `json:"label"`
}

// UnitOptions lists the selectable units in display order.
func UnitOptions() []UnitOption {
	units := models.Units()
	opts := make([]UnitOption, 0, len(units))
	for _, u := range units {
		opts = append(opts, UnitOption{Code: u, Label: u.Label()})
	}
	return opts
}

// RecipeService handles recipe authoring and recipe queries
type RecipeService struct {
	db       *gorm.DB
	blobs    storage.BlobStore
	taxonomy ITaxonomyService
	logger   *zap.Logger
}

var _ IRecipeService = (*RecipeService)(nil)

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(db *gorm.DB, blobs storage.BlobStore, taxonomy ITaxonomyService, logger *zap.Logger) *RecipeService {
	return &RecipeService{
		db:       db,
		blobs:    blobs,
		taxonomy: taxonomy,
		logger:   logger,
	}
}

// CreateRecipe validates the whole submission and stores the recipe, its
// category links, its line items and its image in one transaction.
func (s *RecipeService) CreateRecipe(ctx context.Context, authorID uuid.UUID, req *types.RecipeRequest, image *types.Upload) (*models.Recipe, error) {
	var recipeID uuid.UUID
	var uploaded string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		plan, err := validateRecipe(tx, req, image, nil)
		if err != nil {
			return err
		}

		recipe := models.Recipe{
			Title:       plan.title,
			Description: plan.description,
			Steps:       plan.steps,
			CookTime:    plan.cookTime,
			AuthorID:    authorID,
		}
		if err := tx.Omit(clause.Associations).Create(&recipe).Error; err != nil {
			return err
		}
		recipeID = recipe.ID

		if err := replaceCategories(tx, recipe.ID, plan.categoryIDs); err != nil {
			return err
		}
		if err := applyLines(tx, recipe.ID, plan); err != nil {
			return err
		}

		if plan.image != nil {
			key, err := s.storeImage(ctx, tx, recipe.ID, plan.image)
			uploaded = key
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.discardBlob(ctx, uploaded)
		return nil, err
	}

	s.logger.Info("recipe created", zap.String("recipe_id", recipeID.String()), zap.String("author_id", authorID.String()))
	return s.GetRecipe(ctx, recipeID)
}

// UpdateRecipe replaces the recipe with the submission. Only the author may do
// this; the check happens before any validation.
func (s *RecipeService) UpdateRecipe(ctx context.Context, id, requesterID uuid.UUID, req *types.RecipeRequest, image *types.Upload) (*models.Recipe, error) {
	var uploaded, replaced string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		recipe, err := loadOwned(tx.Preload("Ingredients"), id, requesterID)
		if err != nil {
			return err
		}

		plan, err := validateRecipe(tx, req, image, recipe)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"title":       plan.title,
			"description": plan.description,
			"steps":       plan.steps,
			"cook_time":   plan.cookTime,
		}
		oldKey := recipe.ImageKey
		if plan.image == nil && req.ClearImage && oldKey != "" {
			updates["image_key"] = ""
			updates["image_url"] = ""
			replaced = oldKey
		}
		if err := tx.Model(&models.Recipe{}).Where("id = ?", recipe.ID).Updates(updates).Error; err != nil {
			return err
		}

		if err := replaceCategories(tx, recipe.ID, plan.categoryIDs); err != nil {
			return err
		}
		if err := applyLines(tx, recipe.ID, plan); err != nil {
			return err
		}

		if plan.image != nil {
			key, err := s.storeImage(ctx, tx, recipe.ID, plan.image)
			uploaded = key
			if err != nil {
				return err
			}
			replaced = oldKey
		}
		return nil
	})
	if err != nil {
		s.discardBlob(ctx, uploaded)
		return nil, err
	}

	s.discardBlob(ctx, replaced)
	s.logger.Info("recipe updated", zap.String("recipe_id", id.String()))
	return s.GetRecipe(ctx, id)
}

// EditForm returns the current recipe with the choices the form offers.
func (s *RecipeService) EditForm(ctx context.Context, id, requesterID uuid.UUID) (*EditForm, error) {
	recipe, err := loadOwned(preloadAggregate(s.db.WithContext(ctx)), id, requesterID)
	if err != nil {
		return nil, err
	}
	categories, err := s.taxonomy.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	ingredients, err := s.taxonomy.ListIngredients(ctx)
	if err != nil {
		return nil, err
	}
	return &EditForm{
		Recipe:      recipe,
		Categories:  categories,
		Ingredients: ingredients,
		Units:       UnitOptions(),
	}, nil
}

// PrepareDelete returns the recipe an author is about to delete, for the
// confirmation step.
func (s *RecipeService) PrepareDelete(ctx context.Context, id, requesterID uuid.UUID) (*models.Recipe, error) {
	return loadOwned(preloadAggregate(s.db.WithContext(ctx)), id, requesterID)
}

// DeleteRecipe removes the recipe with its line items, category links and
// image. confirm must be true.
func (s *RecipeService) DeleteRecipe(ctx context.Context, id, requesterID uuid.UUID, confirm bool) error {
	var imageKey string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		recipe, err := loadOwned(tx, id, requesterID)
		if err != nil {
			return err
		}
		if !confirm {
			return ErrConfirmationRequired
		}
		imageKey = recipe.ImageKey

		if err := tx.Where("recipe_id = ?", id).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&models.RecipeCategory{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Recipe{}, "id = ?", id).Error
	})
	if err != nil {
		return err
	}

	s.discardBlob(ctx, imageKey)
	s.logger.Info("recipe deleted", zap.String("recipe_id", id.String()), zap.String("by", requesterID.String()))
	return nil
}

// GetRecipe retrieves a recipe by ID with its author, categories and line items
func (s *RecipeService) GetRecipe(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	err := preloadAggregate(s.db.WithContext(ctx)).First(&recipe, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecipeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

// ListByAuthor returns the author's recipes, newest first.
func (s *RecipeService) ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]models.Recipe, error) {
	return listByAuthor(s.db.WithContext(ctx), authorID)
}

// HomeFeed returns up to HomeFeedSize recipes picked at random.
func (s *RecipeService) HomeFeed(ctx context.Context, rng *rand.Rand) ([]models.Recipe, error) {
	var recipes []models.Recipe
	if err := s.db.WithContext(ctx).Preload("Author").Order("id").Find(&recipes).Error; err != nil {
		return nil, err
	}
	return SampleRecipes(recipes, HomeFeedSize, rng), nil
}

func listByAuthor(db *gorm.DB, authorID uuid.UUID) ([]models.Recipe, error) {
	recipes := []models.Recipe{}
	err := db.Preload("Categories.Category").
		Where("author_id = ?", authorID).
		Order("created_at DESC").Order("id").
		Find(&recipes).Error
	if err != nil {
		return nil, err
	}
	return recipes, nil
}

func preloadAggregate(db *gorm.DB) *gorm.DB {
	return db.Preload("Author").
		Preload("Categories.Category").
		Preload("Ingredients.Ingredient")
}

// loadOwned loads a recipe and checks that requesterID wrote it.
func loadOwned(db *gorm.DB, id, requesterID uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	err := db.First(&recipe, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecipeNotFound
	}
	if err != nil {
		return nil, err
	}
	if recipe.AuthorID != requesterID {
		return nil, ErrNotAuthor
	}
	return &recipe, nil
}

func replaceCategories(tx *gorm.DB, recipeID uuid.UUID, categoryIDs []uuid.UUID) error {
	if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeCategory{}).Error; err != nil {
		return err
	}
	if len(categoryIDs) == 0 {
		return nil
	}
	links := make([]models.RecipeCategory, 0, len(categoryIDs))
	for _, id := range categoryIDs {
		links = append(links, models.RecipeCategory{RecipeID: recipeID, CategoryID: id})
	}
	return tx.Omit(clause.Associations).Create(&links).Error
}

func applyLines(tx *gorm.DB, recipeID uuid.UUID, plan *recipePlan) error {
	if len(plan.deletes) > 0 {
		if err := tx.Where("recipe_id = ? AND id IN ?", recipeID, plan.deletes).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
	}
	for _, line := range plan.upserts {
		if line.id != nil {
			err := tx.Model(&models.RecipeIngredient{}).
				Where("id = ? AND recipe_id = ?", *line.id, recipeID).
				Updates(map[string]interface{}{
					"ingredient_id": line.ingredientID,
					"amount":        line.amount,
					"unit":          line.unit,
				}).Error
			if err != nil {
				return err
			}
			continue
		}
		row := models.RecipeIngredient{
			RecipeID:     recipeID,
			IngredientID: line.ingredientID,
			Amount:       line.amount,
			Unit:         line.unit,
		}
		if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

// storeImage uploads img and points the recipe at it. The returned key is set
// whenever the upload succeeded, even if the row update failed.
func (s *RecipeService) storeImage(ctx context.Context, tx *gorm.DB, recipeID uuid.UUID, img *storage.Image) (string, error) {
	key := storage.NewKey(storage.RecipeImagePrefix, img.Ext)
	url, err := s.blobs.Put(ctx, key, img.Data, img.ContentType)
	if err != nil {
		return "", err
	}
	err = tx.Model(&models.Recipe{}).Where("id = ?", recipeID).
		Updates(map[string]interface{}{"image_key": key, "image_url": url}).Error
	return key, err
}

// discardBlob removes key from the blob store, logging failures.
func (s *RecipeService) discardBlob(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.blobs.Delete(ctx, key); err != nil {
		s.logger.Warn("failed to remove image", zap.String("key", key), zap.Error(err))
	}
}

// Package seed loads the default categories and ingredients, and optionally a
// few demo accounts with recipes, into an existing database.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/recipe-site/backend/internal/models"
	"github.com/pageza/recipe-site/backend/internal/service"
	"github.com/pageza/recipe-site/backend/internal/types"
)

//go:embed taxonomy.yaml
var defaultData []byte

// Data is the seed file layout.
type Data struct {
	Categories  []string `yaml:"categories"`
	Ingredients []string `yaml:"ingredients"`
	Demo        Demo     `yaml:"demo"`
}

type Demo struct {
	Users   []DemoUser   `yaml:"users"`
	Recipes []DemoRecipe `yaml:"recipes"`
}

type DemoUser struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Staff    bool   `yaml:"staff"`
}

type DemoRecipe struct {
	Author      string     `yaml:"author"`
	Title       string     `yaml:"title"`
	Description string     `yaml:"description"`
	Steps       string     `yaml:"steps"`
	CookTime    int        `yaml:"cook_time"`
	Categories  []string   `yaml:"categories"`
	Ingredients []DemoLine `yaml:"ingredients"`
}

type DemoLine struct {
	Ingredient string  `yaml:"ingredient"`
	Amount     float64 `yaml:"amount"`
	Unit       string  `yaml:"unit"`
}

// Default returns the seed data compiled into the binary.
func Default() (*Data, error) {
	return Parse(defaultData)
}

// LoadFile reads seed data from a YAML file.
func LoadFile(path string) (*Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Data, error) {
	var data Data
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse seed data: %w", err)
	}
	for _, list := range [][]string{data.Categories, data.Ingredients} {
		for _, name := range list {
			if n := strings.TrimSpace(name); n == "" || len([]rune(n)) > models.MaxNameLength {
				return nil, fmt.Errorf("invalid taxonomy name %q", name)
			}
		}
	}
	return &data, nil
}

// Result counts the rows a run created.
type Result struct {
	Categories  int
	Ingredients int
	Users       int
	Recipes     int
}

// Seeder writes seed data. Running it twice creates nothing the second time.
type Seeder struct {
	db      *gorm.DB
	auth    service.IAuthService
	recipes service.IRecipeService
	logger  *zap.Logger
}

func NewSeeder(db *gorm.DB, auth service.IAuthService, recipes service.IRecipeService, logger *zap.Logger) *Seeder {
	return &Seeder{db: db, auth: auth, recipes: recipes, logger: logger}
}

// Taxonomy creates the missing categories and ingredients in one transaction.
func (s *Seeder) Taxonomy(ctx context.Context, data *Data) (Result, error) {
	var res Result
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, name := range data.Categories {
			r := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.Category{Name: strings.TrimSpace(name)})
			if r.Error != nil {
				return fmt.Errorf("seed category %q: %w", name, r.Error)
			}
			res.Categories += int(r.RowsAffected)
		}
		for _, name := range data.Ingredients {
			r := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.Ingredient{Name: strings.TrimSpace(name)})
			if r.Error != nil {
				return fmt.Errorf("seed ingredient %q: %w", name, r.Error)
			}
			res.Ingredients += int(r.RowsAffected)
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	s.logger.Info("taxonomy seeded",
		zap.Int("categories_created", res.Categories),
		zap.Int("ingredients_created", res.Ingredients))
	return res, nil
}

// Demo registers the demo users and authors their recipes through the
// regular services, so seeded rows pass the same validation as user input.
func (s *Seeder) Demo(ctx context.Context, data *Data) (Result, error) {
	var res Result

	for _, u := range data.Demo.Users {
		_, err := s.auth.GetUserByUsername(ctx, u.Username)
		switch {
		case err == nil:
		case errors.Is(err, service.ErrUserNotFound):
			if _, err := s.auth.Register(ctx, &types.RegisterRequest{
				Username:  u.Username,
				Email:     u.Email,
				Password1: u.Password,
				Password2: u.Password,
			}); err != nil {
				return res, fmt.Errorf("register %s: %w", u.Username, err)
			}
			res.Users++
		default:
			return res, err
		}
		if u.Staff {
			if err := s.auth.SetStaff(ctx, u.Username, true); err != nil {
				return res, err
			}
		}
	}

	for _, r := range data.Demo.Recipes {
		created, err := s.demoRecipe(ctx, r)
		if err != nil {
			return res, fmt.Errorf("seed recipe %q: %w", r.Title, err)
		}
		if created {
			res.Recipes++
		}
	}

	s.logger.Info("demo data seeded", zap.Int("users_created", res.Users), zap.Int("recipes_created", res.Recipes))
	return res, nil
}

func (s *Seeder) demoRecipe(ctx context.Context, r DemoRecipe) (bool, error) {
	author, err := s.auth.GetUserByUsername(ctx, r.Author)
	if err != nil {
		return false, err
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.Recipe{}).
		Where("author_id = ? AND title = ?", author.ID, r.Title).
		Count(&existing).Error; err != nil {
		return false, err
	}
	if existing > 0 {
		return false, nil
	}

	var categories []models.Category
	if len(r.Categories) > 0 {
		if err := s.db.WithContext(ctx).Where("name IN ?", r.Categories).Find(&categories).Error; err != nil {
			return false, err
		}
	}
	req := &types.RecipeRequest{
		Title:       r.Title,
		Description: r.Description,
		Steps:       strings.TrimSpace(r.Steps),
		CookTime:    r.CookTime,
		CategoryIDs: make([]uuid.UUID, 0, len(categories)),
	}
	for _, c := range categories {
		req.CategoryIDs = append(req.CategoryIDs, c.ID)
	}
	for _, line := range r.Ingredients {
		amount := line.Amount
		req.Ingredients = append(req.Ingredients, types.IngredientLine{
			Ingredient: line.Ingredient,
			Amount:     &amount,
			Unit:       line.Unit,
		})
	}

	if _, err := s.recipes.CreateRecipe(ctx, author.ID, req, nil); err != nil {
		return false, err
	}
	return true, nil
}

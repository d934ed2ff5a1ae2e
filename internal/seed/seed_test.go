package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pageza/recipe-site/backend/internal/models"
	"github.com/pageza/recipe-site/backend/internal/service"
	"github.com/pageza/recipe-site/backend/internal/testhelpers"
)

func newTestSeeder(t *testing.T) (*Seeder, *service.AuthService) {
	logger := zaptest.NewLogger(t)
	db := testhelpers.SetupSQLite(t)
	blobs := testhelpers.NewMemoryBlobStore()
	profiles := service.NewProfileService(db, blobs, logger)
	auth := service.NewAuthService(db, profiles, nil, service.AuthOptions{
		JWTSecret:          "seed-test-secret",
		TokenTTL:           time.Hour,
		RequireUniqueEmail: true,
	}, logger)
	recipes := service.NewRecipeService(db, blobs, service.NewTaxonomyService(db, logger), logger)
	return NewSeeder(db, auth, recipes, logger), auth
}

func TestDefaultDataParses(t *testing.T) {
	data, err := Default()
	require.NoError(t, err)
	assert.Contains(t, data.Categories, "Breakfast")
	assert.Contains(t, data.Ingredients, "Oats")
	assert.NotEmpty(t, data.Demo.Users)
	assert.NotEmpty(t, data.Demo.Recipes)
}

func TestParseRejectsBlankNames(t *testing.T) {
	_, err := Parse([]byte("categories:\n  - \"  \"\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("categories: [unterminated"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("categories: [Brunch]\ningredients: [Kale]\n"), 0o644))

	data, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Brunch"}, data.Categories)
	assert.Equal(t, []string{"Kale"}, data.Ingredients)
}

func TestTaxonomyIsIdempotent(t *testing.T) {
	s, _ := newTestSeeder(t)
	ctx := context.Background()
	data, err := Default()
	require.NoError(t, err)

	first, err := s.Taxonomy(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, len(data.Categories), first.Categories)
	assert.Equal(t, len(data.Ingredients), first.Ingredients)

	second, err := s.Taxonomy(ctx, data)
	require.NoError(t, err)
	assert.Zero(t, second.Categories)
	assert.Zero(t, second.Ingredients)
	assert.EqualValues(t, len(data.Categories), testhelpers.CountRows(t, s.db, &models.Category{}))
}

func TestDemoIsIdempotent(t *testing.T) {
	s, auth := newTestSeeder(t)
	ctx := context.Background()
	data, err := Default()
	require.NoError(t, err)
	_, err = s.Taxonomy(ctx, data)
	require.NoError(t, err)

	first, err := s.Demo(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, len(data.Demo.Users), first.Users)
	assert.Equal(t, len(data.Demo.Recipes), first.Recipes)

	second, err := s.Demo(ctx, data)
	require.NoError(t, err)
	assert.Zero(t, second.Users)
	assert.Zero(t, second.Recipes)

	admin, err := auth.GetUserByUsername(ctx, "demo_admin")
	require.NoError(t, err)
	assert.True(t, admin.IsStaff)

	// every demo user got exactly one profile
	assert.EqualValues(t, len(data.Demo.Users), testhelpers.CountRows(t, s.db, &models.UserProfile{}))
	assert.EqualValues(t, 4, countLines(t, s, "Oatmeal"))
}

func countLines(t *testing.T, s *Seeder, title string) int64 {
	t.Helper()
	var recipe models.Recipe
	require.NoError(t, s.db.Where("title = ?", title).First(&recipe).Error)
	var n int64
	require.NoError(t, s.db.Model(&models.RecipeIngredient{}).Where("recipe_id = ?", recipe.ID).Count(&n).Error)
	return n
}

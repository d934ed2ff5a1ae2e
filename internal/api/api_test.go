package api

import (
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"github.com/pageza/recipe-site/backend/internal/models"
	"github.com/pageza/recipe-site/backend/internal/service"
	"github.com/pageza/recipe-site/backend/internal/testhelpers"
)

type appFixture struct {
	engine *gin.Engine
	db     *gorm.DB
	blobs  *testhelpers.MemoryBlobStore
}

// setupApp wires the real services over an in-memory database.
func setupApp(t *testing.T) *appFixture {
	logger := zaptest.NewLogger(t)
	db := testhelpers.SetupSQLite(t)
	blobs := testhelpers.NewMemoryBlobStore()

	taxonomy := service.NewTaxonomyService(db, logger)
	profiles := service.NewProfileService(db, blobs, logger)
	auth := service.NewAuthService(db, profiles, nil, service.AuthOptions{
		JWTSecret:          "api-test-secret-api-test-secret",
		TokenTTL:           time.Hour,
		RequireUniqueEmail: true,
	}, logger)
	recipes := service.NewRecipeService(db, blobs, taxonomy, logger)

	engine := gin.New()
	RegisterRoutes(engine, Services{
		Auth:     auth,
		Profiles: profiles,
		Recipes:  recipes,
		Taxonomy: taxonomy,
	}, Options{DB: db, Logger: logger})

	return &appFixture{engine: engine, db: db, blobs: blobs}
}

func (a *appFixture) register(t *testing.T, username string) string {
	t.Helper()
	w := performRequest(a.engine, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username":  username,
		"email":     username + "@example.com",
		"password1": "pantry-staple-9",
		"password2": "pantry-staple-9",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeBody(t, w)["token"].(string)
}

func TestHealth(t *testing.T) {
	a := setupApp(t)

	w := performRequest(a.engine, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decodeBody(t, w)["status"])
}

func TestRecipeLifecycle(t *testing.T) {
	a := setupApp(t)
	testhelpers.CreateIngredient(t, a.db, "Oats")
	breakfast := testhelpers.CreateCategory(t, a.db, "Breakfast")

	author := a.register(t, "author")
	other := a.register(t, "other")

	// registration creates exactly one profile per user
	assert.EqualValues(t, 2, testhelpers.CountRows(t, a.db, &models.UserProfile{}))

	payload, err := json.Marshal(map[string]interface{}{
		"title":       "Oatmeal",
		"description": "Quick",
		"steps":       "Boil, mix",
		"cook_time":   10,
		"categories":  []string{breakfast.ID.String()},
		"ingredients": []map[string]interface{}{
			{"ingredient": "Oats", "amount": 50, "unit": "g"},
			{},
		},
	})
	require.NoError(t, err)

	w := performMultipart(t, a.engine, http.MethodPost, "/api/v1/recipes", map[string]string{
		PayloadField: string(payload),
	}, ImageField, testhelpers.PNG, author)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeBody(t, w)["recipe"].(map[string]interface{})
	id := created["id"].(string)
	assert.NotEmpty(t, created["image_url"])
	assert.Equal(t, 1, a.blobs.Len())

	w = performRequest(a.engine, http.MethodGet, "/api/v1/recipes/"+id, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	detail := decodeBody(t, w)["recipe"].(map[string]interface{})
	lines := detail["ingredients"].([]interface{})
	require.Len(t, lines, 1)
	assert.Equal(t, "Oats — 50 g", lines[0].(map[string]interface{})["display"])
	assert.Equal(t, "Breakfast", detail["categories"].([]interface{})[0].(map[string]interface{})["name"])

	w = performRequest(a.engine, http.MethodGet, "/api/v1/home", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["recipes"], 1)

	// a non-author can neither edit nor delete
	w = performRequest(a.engine, http.MethodPut, "/api/v1/recipes/"+id, map[string]interface{}{
		"title": "Mine now", "description": "x", "steps": "x", "cook_time": 1,
	}, other)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = performRequest(a.engine, http.MethodDelete, "/api/v1/recipes/"+id+"?confirm=true", nil, other)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.EqualValues(t, 1, testhelpers.CountRows(t, a.db, &models.Recipe{}))

	// an invalid edit by the author changes nothing
	w = performRequest(a.engine, http.MethodPut, "/api/v1/recipes/"+id, map[string]interface{}{
		"title": "", "description": "Quick", "steps": "Boil", "cook_time": 0,
	}, author)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.ElementsMatch(t, []string{"title", "cook_time"}, fieldNames(decodeValidation(t, w).Fields))

	w = performRequest(a.engine, http.MethodGet, "/api/v1/recipes/"+id, nil, "")
	assert.Equal(t, "Oatmeal", decodeBody(t, w)["recipe"].(map[string]interface{})["title"])

	// own profile lists the recipe
	w = performRequest(a.engine, http.MethodGet, "/api/v1/users/author", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["recipes"], 1)

	// deletion needs the confirmation step
	w = performRequest(a.engine, http.MethodDelete, "/api/v1/recipes/"+id, nil, author)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = performRequest(a.engine, http.MethodGet, "/api/v1/recipes/"+id+"/delete", nil, author)
	require.Equal(t, http.StatusOK, w.Code)
	w = performRequest(a.engine, http.MethodDelete, "/api/v1/recipes/"+id+"?confirm=true", nil, author)
	require.Equal(t, http.StatusOK, w.Code)

	assert.EqualValues(t, 0, testhelpers.CountRows(t, a.db, &models.Recipe{}))
	assert.EqualValues(t, 0, testhelpers.CountRows(t, a.db, &models.RecipeIngredient{}))
	assert.EqualValues(t, 0, testhelpers.CountRows(t, a.db, &models.RecipeCategory{}))
	assert.Equal(t, 0, a.blobs.Len())

	w = performRequest(a.engine, http.MethodGet, "/api/v1/recipes/"+id, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHomeFeed_SeededRandIsDeterministic(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	logger := zaptest.NewLogger(t)
	taxonomy := service.NewTaxonomyService(db, logger)
	recipes := service.NewRecipeService(db, testhelpers.NewMemoryBlobStore(), taxonomy, logger)
	author := testhelpers.CreateUser(t, db, "author")
	for i := 0; i < 8; i++ {
		require.NoError(t, db.Create(&models.Recipe{
			Title: "r", Description: "d", Steps: "s", CookTime: 1, AuthorID: author.ID,
		}).Error)
	}

	h := NewRecipeHandler(recipes, nil, nil, nil).WithRand(func() *rand.Rand {
		return rand.New(rand.NewPCG(7, 7))
	})
	engine := gin.New()
	engine.GET("/home", h.Home)

	first := performRequest(engine, http.MethodGet, "/home", nil, "")
	second := performRequest(engine, http.MethodGet, "/home", nil, "")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Len(t, decodeBody(t, first)["recipes"], service.HomeFeedSize)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
}

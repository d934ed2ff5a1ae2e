package api

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pageza/recipe-site/backend/internal/models"
	"github.com/pageza/recipe-site/backend/internal/service"
	"github.com/pageza/recipe-site/backend/internal/testhelpers"
	"github.com/pageza/recipe-site/backend/internal/types"
)

func sampleRecipe(authorID uuid.UUID) *models.Recipe {
	oats := &models.Ingredient{ID: uuid.New(), Name: "Oats"}
	breakfast := &models.Category{ID: uuid.New(), Name: "Breakfast"}
	return &models.Recipe{
		ID:          uuid.New(),
		Title:       "Oatmeal",
		Description: "Quick",
		Steps:       "Boil, mix",
		CookTime:    10,
		AuthorID:    authorID,
		Author:      &models.User{ID: authorID, Username: "author"},
		Categories:  []models.RecipeCategory{{CategoryID: breakfast.ID, Category: breakfast}},
		Ingredients: []models.RecipeIngredient{{
			ID:           uuid.New(),
			IngredientID: oats.ID,
			Ingredient:   oats,
			Amount:       50,
			Unit:         models.UnitGram,
		}},
		CreatedAt: time.Now(),
	}
}

func TestHome(t *testing.T) {
	r := setupMockedRouter(t)
	recipes := []models.Recipe{*sampleRecipe(uuid.New()), *sampleRecipe(uuid.New())}
	r.recipes.On("HomeFeed", mock.Anything, mock.AnythingOfType("*rand.Rand")).Return(recipes, nil)

	w := performRequest(r.engine, http.MethodGet, "/api/v1/home", nil, "")

	assert.Equal(t, http.StatusOK, w.Code)
	list := decodeBody(t, w)["recipes"].([]interface{})
	assert.Len(t, list, 2)
}

func TestHome_Empty(t *testing.T) {
	r := setupMockedRouter(t)
	r.recipes.On("HomeFeed", mock.Anything, mock.Anything).Return([]models.Recipe{}, nil)

	w := performRequest(r.engine, http.MethodGet, "/api/v1/home", nil, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"recipes":[]}`, w.Body.String())
}

func TestGetRecipe_Detail(t *testing.T) {
	r := setupMockedRouter(t)
	recipe := sampleRecipe(uuid.New())
	r.recipes.On("GetRecipe", mock.Anything, recipe.ID).Return(recipe, nil)

	w := performRequest(r.engine, http.MethodGet, "/api/v1/recipes/"+recipe.ID.String(), nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	got := decodeBody(t, w)["recipe"].(map[string]interface{})
	assert.Equal(t, "Oatmeal", got["title"])
	cats := got["categories"].([]interface{})
	assert.Equal(t, "Breakfast", cats[0].(map[string]interface{})["name"])
	lines := got["ingredients"].([]interface{})
	assert.Equal(t, "Oats — 50 g", lines[0].(map[string]interface{})["display"])
	assert.Equal(t, "author", got["author"].(map[string]interface{})["username"])
}

func TestGetRecipe_NotFound(t *testing.T) {
	r := setupMockedRouter(t)
	missing := uuid.New()
	r.recipes.On("GetRecipe", mock.Anything, missing).Return(nil, service.ErrRecipeNotFound)

	w := performRequest(r.engine, http.MethodGet, "/api/v1/recipes/"+missing.String(), nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = performRequest(r.engine, http.MethodGet, "/api/v1/recipes/not-a-uuid", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateRecipe_RequiresAuth(t *testing.T) {
	r := setupMockedRouter(t)

	w := performRequest(r.engine, http.MethodPost, "/api/v1/recipes", map[string]string{"title": "x"}, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	r.recipes.AssertNotCalled(t, "CreateRecipe", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateRecipe_JSON(t *testing.T) {
	r := setupMockedRouter(t)
	userID := uuid.New()
	r.signIn("tok", userID, false)
	created := sampleRecipe(userID)
	r.recipes.On("CreateRecipe", mock.Anything, userID, mock.MatchedBy(func(req *types.RecipeRequest) bool {
		return req.Title == "Oatmeal" && len(req.Ingredients) == 1 && *req.Ingredients[0].Amount == 50
	}), (*types.Upload)(nil)).Return(created, nil)

	w := performRequest(r.engine, http.MethodPost, "/api/v1/recipes", map[string]interface{}{
		"title":       "Oatmeal",
		"description": "Quick",
		"steps":       "Boil, mix",
		"cook_time":   10,
		"ingredients": []map[string]interface{}{{"ingredient": "Oats", "amount": 50, "unit": "g"}},
	}, "tok")

	assert.Equal(t, http.StatusCreated, w.Code)
	got := decodeBody(t, w)["recipe"].(map[string]interface{})
	assert.Equal(t, created.ID.String(), got["id"])
}

func TestCreateRecipe_MultipartWithImage(t *testing.T) {
	r := setupMockedRouter(t)
	userID := uuid.New()
	r.signIn("tok", userID, false)
	r.recipes.On("CreateRecipe", mock.Anything, userID, mock.Anything, mock.MatchedBy(func(u *types.Upload) bool {
		return u != nil && u.Filename == "upload.png" && len(u.Data) == len(testhelpers.PNG)
	})).Return(sampleRecipe(userID), nil)

	w := performMultipart(t, r.engine, http.MethodPost, "/api/v1/recipes", map[string]string{
		PayloadField: `{"title":"Oatmeal","description":"Quick","steps":"Boil","cook_time":5}`,
	}, ImageField, testhelpers.PNG, "tok")

	assert.Equal(t, http.StatusCreated, w.Code)
	r.recipes.AssertExpectations(t)
}

func TestCreateRecipe_ValidationEchoesSubmission(t *testing.T) {
	r := setupMockedRouter(t)
	userID := uuid.New()
	r.signIn("tok", userID, false)
	verr := &service.ValidationError{}
	verr.Add("title", "This field is required.")
	verr.Add("ingredients[0].amount", "This field is required.")
	r.recipes.On("CreateRecipe", mock.Anything, userID, mock.Anything, mock.Anything).Return(nil, verr)

	w := performRequest(r.engine, http.MethodPost, "/api/v1/recipes", map[string]interface{}{
		"description": "Quick",
		"ingredients": []map[string]interface{}{{"ingredient": "Oats"}},
	}, "tok")

	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeValidation(t, w)
	assert.Equal(t, []string{"title", "ingredients[0].amount"}, fieldNames(resp.Fields))
	submission := resp.Submission.(map[string]interface{})
	assert.Equal(t, "Quick", submission["description"])
}

func TestCreateRecipe_MalformedBody(t *testing.T) {
	r := setupMockedRouter(t)
	r.signIn("tok", uuid.New(), false)

	w := performMultipart(t, r.engine, http.MethodPost, "/api/v1/recipes", map[string]string{
		PayloadField: `{not json`,
	}, "", nil, "tok")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{"body"}, fieldNames(decodeValidation(t, w).Fields))
}

func TestUpdateRecipe_NonAuthorRedirectsHome(t *testing.T) {
	r := setupMockedRouter(t)
	userID := uuid.New()
	id := uuid.New()
	r.signIn("tok", userID, false)
	r.recipes.On("UpdateRecipe", mock.Anything, id, userID, mock.Anything, mock.Anything).Return(nil, service.ErrNotAuthor)

	w := performRequest(r.engine, http.MethodPut, "/api/v1/recipes/"+id.String(), map[string]string{"title": "Hijack"}, "tok")

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, HomePath, decodeBody(t, w)["redirect"])
}

func TestEditForm(t *testing.T) {
	r := setupMockedRouter(t)
	userID := uuid.New()
	recipe := sampleRecipe(userID)
	r.signIn("tok", userID, false)
	r.recipes.On("EditForm", mock.Anything, recipe.ID, userID).Return(&service.EditForm{
		Recipe:      recipe,
		Categories:  []models.Category{{ID: uuid.New(), Name: "Breakfast"}},
		Ingredients: []models.Ingredient{{ID: uuid.New(), Name: "Oats"}},
		Units:       service.UnitOptions(),
	}, nil)

	w := performRequest(r.engine, http.MethodGet, fmt.Sprintf("/api/v1/recipes/%s/edit", recipe.ID), nil, "tok")

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Len(t, body["units"], 5)
	assert.Len(t, body["categories"], 1)
}

func TestDelete_ConfirmationFlow(t *testing.T) {
	r := setupMockedRouter(t)
	userID := uuid.New()
	recipe := sampleRecipe(userID)
	r.signIn("tok", userID, false)
	r.recipes.On("PrepareDelete", mock.Anything, recipe.ID, userID).Return(recipe, nil)
	r.recipes.On("DeleteRecipe", mock.Anything, recipe.ID, userID, false).Return(service.ErrConfirmationRequired)
	r.recipes.On("DeleteRecipe", mock.Anything, recipe.ID, userID, true).Return(nil)

	path := "/api/v1/recipes/" + recipe.ID.String()

	w := performRequest(r.engine, http.MethodGet, path+"/delete", nil, "tok")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, path+"?confirm=true", decodeBody(t, w)["confirm"])

	w = performRequest(r.engine, http.MethodDelete, path, nil, "tok")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(r.engine, http.MethodDelete, path+"?confirm=true", nil, "tok")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, HomePath, decodeBody(t, w)["redirect"])
	r.recipes.AssertExpectations(t)
}

func TestDelete_NonAuthor(t *testing.T) {
	r := setupMockedRouter(t)
	userID := uuid.New()
	id := uuid.New()
	r.signIn("tok", userID, false)
	r.recipes.On("PrepareDelete", mock.Anything, id, userID).Return(nil, service.ErrNotAuthor)
	r.recipes.On("DeleteRecipe", mock.Anything, id, userID, true).Return(service.ErrNotAuthor)

	w := performRequest(r.engine, http.MethodGet, "/api/v1/recipes/"+id.String()+"/delete", nil, "tok")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = performRequest(r.engine, http.MethodDelete, "/api/v1/recipes/"+id.String()+"?confirm=true", nil, "tok")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUnexpectedErrorIsHidden(t *testing.T) {
	r := setupMockedRouter(t)
	id := uuid.New()
	r.recipes.On("GetRecipe", mock.Anything, id).Return(nil, fmt.Errorf("connection reset by peer"))

	w := performRequest(r.engine, http.MethodGet, "/api/v1/recipes/"+id.String(), nil, "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection reset")
}

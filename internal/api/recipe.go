package api

import (
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pageza/recipe-site/backend/internal/middleware"
	"github.com/pageza/recipe-site/backend/internal/service"
	"github.com/pageza/recipe-site/backend/internal/types"
)

// ImageField is the multipart field carrying a recipe image.
const ImageField = "image"

type RecipeHandler struct {
	recipeService       service.IRecipeService
	authService         middleware.TokenValidator
	creationLimiter     *middleware.RateLimiter
	modificationLimiter *middleware.RateLimiter
	newRand             func() *rand.Rand
}

// NewRecipeHandler wires the recipe endpoints. Either limiter may be nil, which
// disables that limit.
func NewRecipeHandler(recipeService service.IRecipeService, authService middleware.TokenValidator, creationLimiter, modificationLimiter *middleware.RateLimiter) *RecipeHandler {
	return &RecipeHandler{
		recipeService:       recipeService,
		authService:         authService,
		creationLimiter:     creationLimiter,
		modificationLimiter: modificationLimiter,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		},
	}
}

// WithRand replaces the per-request random source of the home feed.
func (h *RecipeHandler) WithRand(newRand func() *rand.Rand) *RecipeHandler {
	h.newRand = newRand
	return h
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/home", h.Home)

	auth := middleware.AuthMiddleware(h.authService)
	recipes := router.Group("/recipes")
	{
		recipes.GET("/:id", h.GetRecipe)
		recipes.POST("", auth, h.creationLimiter.RateLimitMiddleware(), h.CreateRecipe)
		recipes.GET("/:id/edit", auth, h.EditForm)
		recipes.PUT("/:id", auth, h.modificationLimiter.PerRecipeRateLimitMiddleware(), h.UpdateRecipe)
		recipes.GET("/:id/delete", auth, h.ConfirmDelete)
		recipes.DELETE("/:id", auth, h.DeleteRecipe)
	}
}

// Home returns a random sample of recipes.
func (h *RecipeHandler) Home(c *gin.Context) {
	recipes, err := h.recipeService.HomeFeed(c.Request.Context(), h.newRand())
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": newRecipeList(recipes)})
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	recipe, err := h.recipeService.GetRecipe(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipe": newRecipeResponse(recipe)})
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req types.RecipeRequest
	image, err := bindSubmission(c, &req, ImageField)
	if err != nil {
		respondError(c, bindingError(err), req)
		return
	}

	recipe, err := h.recipeService.CreateRecipe(c.Request.Context(), userID, &req, image)
	if err != nil {
		respondError(c, err, req)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"recipe": newRecipeResponse(recipe)})
}

// EditForm returns the author's recipe with the available choices.
func (h *RecipeHandler) EditForm(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := recipeID(c)
	if !ok {
		return
	}

	form, err := h.recipeService.EditForm(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, EditFormResponse{
		Recipe:      newRecipeResponse(form.Recipe),
		Categories:  form.Categories,
		Ingredients: form.Ingredients,
		Units:       form.Units,
	})
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := recipeID(c)
	if !ok {
		return
	}

	var req types.RecipeRequest
	image, err := bindSubmission(c, &req, ImageField)
	if err != nil {
		respondError(c, bindingError(err), req)
		return
	}

	recipe, err := h.recipeService.UpdateRecipe(c.Request.Context(), id, userID, &req, image)
	if err != nil {
		respondError(c, err, req)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipe": newRecipeResponse(recipe)})
}

// ConfirmDelete is the first step of a deletion: it shows what would go.
func (h *RecipeHandler) ConfirmDelete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := recipeID(c)
	if !ok {
		return
	}

	recipe, err := h.recipeService.PrepareDelete(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"recipe":  newRecipeResponse(recipe),
		"confirm": strings.TrimSuffix(c.Request.URL.Path, "/delete") + "?confirm=true",
	})
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := recipeID(c)
	if !ok {
		return
	}

	confirm, _ := strconv.ParseBool(c.Query("confirm"))
	if err := h.recipeService.DeleteRecipe(c.Request.Context(), id, userID, confirm); err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "recipe deleted", "redirect": HomePath})
}

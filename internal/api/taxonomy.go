package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/recipe-site/backend/internal/middleware"
	"github.com/pageza/recipe-site/backend/internal/service"
	"github.com/pageza/recipe-site/backend/internal/types"
)

type TaxonomyHandler struct {
	taxonomyService service.ITaxonomyService
	authService     middleware.TokenValidator
}

func NewTaxonomyHandler(taxonomyService service.ITaxonomyService, authService middleware.TokenValidator) *TaxonomyHandler {
	return &TaxonomyHandler{
		taxonomyService: taxonomyService,
		authService:     authService,
	}
}

func (h *TaxonomyHandler) RegisterRoutes(router *gin.RouterGroup) {
	staff := []gin.HandlerFunc{middleware.AuthMiddleware(h.authService), middleware.RequireStaff()}

	router.GET("/categories", h.ListCategories)
	router.POST("/categories", append(staff, h.CreateCategory)...)
	router.GET("/ingredients", h.ListIngredients)
	router.POST("/ingredients", append(staff, h.CreateIngredient)...)
}

func (h *TaxonomyHandler) ListCategories(c *gin.Context) {
	categories, err := h.taxonomyService.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (h *TaxonomyHandler) ListIngredients(c *gin.Context) {
	ingredients, err := h.taxonomyService.ListIngredients(c.Request.Context())
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ingredients": ingredients})
}

func (h *TaxonomyHandler) CreateCategory(c *gin.Context) {
	var req types.TaxonomyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindingError(err), req)
		return
	}

	category, err := h.taxonomyService.CreateCategory(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err, req)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"category": category})
}

func (h *TaxonomyHandler) CreateIngredient(c *gin.Context) {
	var req types.TaxonomyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindingError(err), req)
		return
	}

	ingredient, err := h.taxonomyService.CreateIngredient(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err, req)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ingredient": ingredient})
}

package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/pageza/recipe-site/backend/internal/models"
	"github.com/pageza/recipe-site/backend/internal/service"
)

// AuthorSummary identifies a recipe's author
type AuthorSummary struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

// CategoryRef is a category linked to a recipe
type CategoryRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// IngredientLineResponse is one rendered line item
type IngredientLineResponse struct {
	ID           uuid.UUID   `json:"id"`
	IngredientID uuid.UUID   `json:"ingredient_id"`
	Ingredient   string      `json:"ingredient"`
	Amount       float64     `json:"amount"`
	Unit         models.Unit `json:"unit"`
	Display      string      `json:"display"`
}

// RecipeResponse represents the response structure for recipe-related API endpoints
type RecipeResponse struct {
	ID          uuid.UUID                `json:"id"`
	Title       string                   `json:"title"`
	Description string                   `json:"description"`
	Steps       string                   `json:"steps"`
	CookTime    int                      `json:"cook_time"`
	ImageURL    string                   `json:"image_url,omitempty"`
	Author      *AuthorSummary           `json:"author,omitempty"`
	Categories  []CategoryRef            `json:"categories"`
	Ingredients []IngredientLineResponse `json:"ingredients"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
}

// EditFormResponse carries the current recipe and the form's choices
type EditFormResponse struct {
	Recipe      RecipeResponse       `json:"recipe"`
	Categories  []models.Category    `json:"categories"`
	Ingredients []models.Ingredient  `json:"ingredients"`
	Units       []service.UnitOption `json:"units"`
}

// ProfileResponse is the own or public view of a user
type ProfileResponse struct {
	User    AuthorSummary    `json:"user"`
	Bio     string           `json:"bio"`
	Avatar  string           `json:"avatar_url,omitempty"`
	Recipes []RecipeResponse `json:"recipes"`
}

func newRecipeResponse(r *models.Recipe) RecipeResponse {
	resp := RecipeResponse{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Steps:       r.Steps,
		CookTime:    r.CookTime,
		ImageURL:    r.ImageURL,
		Categories:  make([]CategoryRef, 0, len(r.Categories)),
		Ingredients: make([]IngredientLineResponse, 0, len(r.Ingredients)),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.Author != nil {
		resp.Author = &AuthorSummary{ID: r.Author.ID, Username: r.Author.Username}
	}
	for _, rc := range r.Categories {
		resp.Categories = append(resp.Categories, CategoryRef{ID: rc.CategoryID, Name: rc.Name()})
	}
	for _, line := range r.Ingredients {
		name := ""
		if line.Ingredient != nil {
			name = line.Ingredient.Name
		}
		resp.Ingredients = append(resp.Ingredients, IngredientLineResponse{
			ID:           line.ID,
			IngredientID: line.IngredientID,
			Ingredient:   name,
			Amount:       line.Amount,
			Unit:         line.Unit,
			Display:      line.Display(),
		})
	}
	return resp
}

func newRecipeList(recipes []models.Recipe) []RecipeResponse {
	out := make([]RecipeResponse, 0, len(recipes))
	for i := range recipes {
		out = append(out, newRecipeResponse(&recipes[i]))
	}
	return out
}

func newProfileResponse(v *service.ProfileView) ProfileResponse {
	resp := ProfileResponse{
		User:    AuthorSummary{ID: v.User.ID, Username: v.User.Username},
		Recipes: newRecipeList(v.Recipes),
	}
	if v.Profile != nil {
		resp.Bio = v.Profile.Bio
		resp.Avatar = v.Profile.AvatarURL
	}
	return resp
}

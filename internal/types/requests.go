package types

import (
	"github.com/google/uuid"
)

// RecipeRequest is the submitted recipe form: header fields, category selection
// and ingredient line items.
type RecipeRequest struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Steps       string           `json:"steps"`
	CookTime    int              `json:"cook_time"`
	CategoryIDs []uuid.UUID      `json:"categories"`
	Ingredients []IngredientLine `json:"ingredients"`
	ClearImage  bool             `json:"clear_image,omitempty"`
}

// IngredientLine is one row of the ingredient formset. ID refers to an existing
// line when editing; Delete marks the row for removal.
type IngredientLine struct {
	ID           *uuid.UUID `json:"id,omitempty"`
	IngredientID *uuid.UUID `json:"ingredient_id,omitempty"`
	Ingredient   string     `json:"ingredient,omitempty"`
	Amount       *float64   `json:"amount,omitempty"`
	Unit         string     `json:"unit,omitempty"`
	Delete       bool       `json:"delete,omitempty"`
}

// Blank reports whether the row carries no data at all.
func (l IngredientLine) Blank() bool {
	return l.ID == nil && l.IngredientID == nil && l.Ingredient == "" && l.Amount == nil
}

// Upload is an uploaded file read into memory.
type Upload struct {
	Filename string
	Data     []byte
}

type RegisterRequest struct {
	Username  string `json:"username" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password1 string `json:"password1" binding:"required"`
	Password2 string `json:"password2" binding:"required"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TaxonomyRequest struct {
	Name string `json:"name" binding:"required"`
}

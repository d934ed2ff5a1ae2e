package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Unit is the measure of a recipe ingredient amount.
type Unit string

const (
	UnitGram       Unit = "g"
	UnitMilliliter Unit = "ml"
	UnitPiece      Unit = "pcs"
	UnitTeaspoon   Unit = "tsp"
	UnitTablespoon Unit = "tbsp"

	DefaultUnit = UnitGram
)

var unitLabels = map[Unit]string{
	UnitGram:       "gram",
	UnitMilliliter: "milliliter",
	UnitPiece:      "piece",
	UnitTeaspoon:   "teaspoon",
	UnitTablespoon: "tablespoon",
}

// Units lists the supported units in display order.
func Units() []Unit {
	return []Unit{UnitGram, UnitMilliliter, UnitPiece, UnitTeaspoon, UnitTablespoon}
}

// ParseUnit accepts a short code ("g") or a long name ("gram", "grams").
// An empty string yields DefaultUnit.
func ParseUnit(s string) (Unit, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultUnit, true
	}
	for code, label := range unitLabels {
		if s == string(code) || s == label || s == label+"s" {
			return code, true
		}
	}
	return "", false
}

// Label returns the long name of the unit.
func (u Unit) Label() string {
	return unitLabels[u]
}

func (u Unit) Valid() bool {
	_, ok := unitLabels[u]
	return ok
}

type Recipe struct {
	ID          uuid.UUID          `gorm:"type:varchar(36);primarykey" json:"id"`
	Title       string             `gorm:"size:100;not null" json:"title"`
	Description string             `gorm:"type:text;not null" json:"description"`
	Steps       string             `gorm:"type:text;not null" json:"steps"`
	CookTime    int                `gorm:"not null;check:cook_time >= 0" json:"cook_time"`
	ImageKey    string             `gorm:"size:255" json:"-"`
	ImageURL    string             `gorm:"size:512" json:"image_url,omitempty"`
	AuthorID    uuid.UUID          `gorm:"type:varchar(36);not null;index" json:"author_id"`
	Author      *User              `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author,omitempty"`
	Categories  []RecipeCategory   `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"categories"`
	Ingredients []RecipeIngredient `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"ingredients"`
	CreatedAt   time.Time          `gorm:"<-:create;index" json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// CategoryIDs returns the ids of the linked categories.
func (r *Recipe) CategoryIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(r.Categories))
	for _, rc := range r.Categories {
		ids = append(ids, rc.CategoryID)
	}
	return ids
}

// RecipeCategory links a recipe to a category. The pair is unique.
type RecipeCategory struct {
	ID         uuid.UUID `gorm:"type:varchar(36);primarykey" json:"-"`
	RecipeID   uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex:idx_recipe_category" json:"-"`
	CategoryID uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex:idx_recipe_category" json:"id"`
	Category   *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"-"`
}

func (rc *RecipeCategory) BeforeCreate(tx *gorm.DB) error {
	if rc.ID == uuid.Nil {
		rc.ID = uuid.New()
	}
	return nil
}

// Name returns the linked category name when it was preloaded.
func (rc RecipeCategory) Name() string {
	if rc.Category == nil {
		return ""
	}
	return rc.Category.Name
}

// RecipeIngredient is one line item of a recipe.
type RecipeIngredient struct {
	ID           uuid.UUID   `gorm:"type:varchar(36);primarykey" json:"id"`
	RecipeID     uuid.UUID   `gorm:"type:varchar(36);not null;index" json:"-"`
	IngredientID uuid.UUID   `gorm:"type:varchar(36);not null" json:"ingredient_id"`
	Ingredient   *Ingredient `gorm:"foreignKey:IngredientID;constraint:OnDelete:CASCADE" json:"-"`
	Amount       float64     `gorm:"type:decimal(10,2);not null" json:"amount"`
	Unit         Unit        `gorm:"size:8;not null;default:'g'" json:"unit"`
}

func (ri *RecipeIngredient) BeforeCreate(tx *gorm.DB) error {
	if ri.ID == uuid.Nil {
		ri.ID = uuid.New()
	}
	return nil
}

// Display renders the line as "Oats — 50 g".
func (ri RecipeIngredient) Display() string {
	name := ""
	if ri.Ingredient != nil {
		name = ri.Ingredient.Name
	}
	return fmt.Sprintf("%s — %s %s", name, strconv.FormatFloat(ri.Amount, 'f', -1, 64), ri.Unit)
}

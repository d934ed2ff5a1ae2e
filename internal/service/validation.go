package service

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sahilm/fuzzy"
	"gorm.io/gorm"

	"github.com/pageza/recipe-site/backend/internal/models"
	"github.com/pageza/recipe-site/backend/internal/storage"
	"github.com/pageza/recipe-site/backend/internal/types"
)

const (
	maxTitleLength       = 100
	maxDescriptionLength = 100
	minCookTime          = 1
	maxCookTime          = math.MaxInt32
	// decimal(10,2)
	maxAmount      = 1e8
	amountDecimals = 2
)

// recipePlan is a validated submission, ready to be written.
type recipePlan struct {
	title       string
	description string
	steps       string
	cookTime    int
	categoryIDs []uuid.UUID
	upserts     []plannedLine
	deletes     []uuid.UUID
	image       *storage.Image
}

type plannedLine struct {
	id           *uuid.UUID
	ingredientID uuid.UUID
	amount       float64
	unit         models.Unit
}

// validateRecipe checks header, categories, line items and image together and
// reports every problem at once. existing is nil when creating.
func validateRecipe(tx *gorm.DB, req *types.RecipeRequest, image *types.Upload, existing *models.Recipe) (*recipePlan, error) {
	verr := &ValidationError{}
	plan := &recipePlan{
		title:       strings.TrimSpace(req.Title),
		description: strings.TrimSpace(req.Description),
		steps:       strings.TrimSpace(req.Steps),
		cookTime:    req.CookTime,
	}

	requireText(verr, "title", plan.title, maxTitleLength)
	requireText(verr, "description", plan.description, maxDescriptionLength)
	requireText(verr, "steps", plan.steps, 0)
	switch {
	case plan.cookTime < minCookTime:
		verr.Add("cook_time", fmt.Sprintf("Ensure this value is greater than or equal to %d.", minCookTime))
	case plan.cookTime > maxCookTime:
		verr.Add("cook_time", fmt.Sprintf("Ensure this value is less than or equal to %d.", maxCookTime))
	}

	ids, err := validateCategories(tx, req.CategoryIDs, verr)
	if err != nil {
		return nil, err
	}
	plan.categoryIDs = ids

	if err := validateLines(tx, req.Ingredients, existing, plan, verr); err != nil {
		return nil, err
	}

	if image != nil && len(image.Data) > 0 {
		img, err := storage.ValidateImage(image.Data)
		if err != nil {
			verr.Add("image", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
		}
		plan.image = img
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return plan, nil
}

func requireText(verr *ValidationError, field, value string, max int) {
	if value == "" {
		verr.Add(field, "This field is required.")
		return
	}
	if max > 0 && utf8.RuneCountInString(value) > max {
		verr.Add(field, fmt.Sprintf("Ensure this value has at most %d characters (it has %d).", max, utf8.RuneCountInString(value)))
	}
}

func validateCategories(tx *gorm.DB, selected []uuid.UUID, verr *ValidationError) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]bool, len(selected))
	ids := make([]uuid.UUID, 0, len(selected))
	for _, id := range selected {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return ids, nil
	}

	var found []models.Category
	if err := tx.Select("id").Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}
	known := make(map[uuid.UUID]bool, len(found))
	for _, c := range found {
		known[c.ID] = true
	}
	for _, id := range ids {
		if !known[id] {
			verr.Add("categories", fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", id))
		}
	}
	return ids, nil
}

func validateLines(tx *gorm.DB, lines []types.IngredientLine, existing *models.Recipe, plan *recipePlan, verr *ValidationError) error {
	owned := map[uuid.UUID]bool{}
	if existing != nil {
		for _, li := range existing.Ingredients {
			owned[li.ID] = true
		}
	}
	referenced := map[uuid.UUID]bool{}

	for i, line := range lines {
		field := func(name string) string { return fmt.Sprintf("ingredients[%d].%s", i, name) }

		if line.ID != nil {
			if !owned[*line.ID] {
				verr.Add(field("id"), "Unknown ingredient line for this recipe.")
				continue
			}
			if referenced[*line.ID] {
				verr.Add(field("id"), "This ingredient line appears more than once.")
				continue
			}
			referenced[*line.ID] = true
		}

		if line.Delete {
			if line.ID != nil {
				plan.deletes = append(plan.deletes, *line.ID)
			}
			continue
		}
		// the spare empty row of the form
		if line.Blank() {
			continue
		}

		planned := plannedLine{id: line.ID}

		ingredientID, err := resolveIngredient(tx, line, field("ingredient"), verr)
		if err != nil {
			return err
		}
		planned.ingredientID = ingredientID

		switch {
		case line.Amount == nil:
			verr.Add(field("amount"), "This field is required.")
		case *line.Amount <= 0:
			verr.Add(field("amount"), "Ensure this value is greater than 0.")
		case *line.Amount >= maxAmount:
			verr.Add(field("amount"), "Ensure that there are no more than 8 digits before the decimal point.")
		case !fitsDecimals(*line.Amount, amountDecimals):
			verr.Add(field("amount"), fmt.Sprintf("Ensure that there are no more than %d decimal places.", amountDecimals))
		default:
			planned.amount = *line.Amount
		}

		unit, ok := models.ParseUnit(line.Unit)
		if !ok {
			verr.Add(field("unit"), fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", line.Unit))
		}
		planned.unit = unit

		plan.upserts = append(plan.upserts, planned)
	}
	return nil
}

// fitsDecimals reports whether v is stored exactly with the given scale.
func fitsDecimals(v float64, places int) bool {
	scaled := v * math.Pow10(places)
	return math.Abs(scaled-math.Round(scaled)) < 1e-6
}

// resolveIngredient finds the referenced Ingredient by id, or else by exact name.
func resolveIngredient(tx *gorm.DB, line types.IngredientLine, field string, verr *ValidationError) (uuid.UUID, error) {
	var ingredient models.Ingredient
	var err error
	switch {
	case line.IngredientID != nil:
		err = tx.Select("id").First(&ingredient, "id = ?", *line.IngredientID).Error
	case strings.TrimSpace(line.Ingredient) != "":
		err = tx.Select("id").First(&ingredient, "name = ?", strings.TrimSpace(line.Ingredient)).Error
	default:
		verr.Add(field, "This field is required.")
		return uuid.Nil, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		msg := "Select a valid choice. That choice is not one of the available choices."
		if suggestion, serr := suggestIngredient(tx, line.Ingredient); serr != nil {
			return uuid.Nil, serr
		} else if suggestion != "" {
			msg += fmt.Sprintf(" Did you mean %q?", suggestion)
		}
		verr.Add(field, msg)
		return uuid.Nil, nil
	}
	if err != nil {
		return uuid.Nil, err
	}
	return ingredient.ID, nil
}

// suggestIngredient returns the closest known ingredient name, or "".
func suggestIngredient(tx *gorm.DB, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil
	}
	var names []string
	if err := tx.Model(&models.Ingredient{}).Order("name").Pluck("name", &names).Error; err != nil {
		return "", err
	}
	matches := fuzzy.Find(strings.ToLower(name), lowerAll(names))
	if len(matches) == 0 {
		return "", nil
	}
	return names[matches[0].Index], nil
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

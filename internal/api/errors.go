package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/pageza/recipe-site/backend/internal/service"
)

// HomePath is where clients are sent after a refused recipe change.
const HomePath = "/api/v1/home"

// ValidationResponse re-presents a rejected submission with every field error.
type ValidationResponse struct {
	Error      string               `json:"error"`
	Fields     []service.FieldError `json:"fields"`
	Submission interface{}          `json:"submission,omitempty"`
}

// respondError maps service errors onto HTTP responses. submission is echoed
// back on validation failures so the client can re-present its form.
func respondError(c *gin.Context, err error, submission interface{}) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, ValidationResponse{
			Error:      "validation failed",
			Fields:     verr.Fields,
			Submission: submission,
		})
	case errors.Is(err, service.ErrNotAuthor):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "redirect": HomePath})
	case errors.Is(err, service.ErrRecipeNotFound), errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrConfirmationRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// bindingError turns a gin binding failure into field errors. Malformed bodies
// that never reach the validator are reported against "body".
func bindingError(err error) *service.ValidationError {
	verr := &service.ValidationError{}
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		verr.Add("body", "malformed request body")
		return verr
	}
	for _, fe := range fields {
		name := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			verr.Add(name, "This field is required.")
		case "email":
			verr.Add(name, "Enter a valid email address.")
		default:
			verr.Add(name, "Invalid value.")
		}
	}
	return verr
}

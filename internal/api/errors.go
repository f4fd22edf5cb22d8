package api

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/barysai/barysai/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// fieldMessages overrides the generic wording for specific field/tag pairs.
var fieldMessages = map[string]string{
	"email.required":     "Valid email is required",
	"email.email":        "Valid email is required",
	"password.required":  "Password is required",
	"password.min":       "Password must be at least 6 characters long",
	"firstName.required": "First name is required",
	"lastName.required":  "Last name is required",
}

func init() {
	// Report JSON names ("firstName") instead of Go field names.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// bindJSON decodes and validates the body. On failure it writes the 400
// response and returns false.
func bindJSON(c *gin.Context, req any) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make([]fieldError, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, fieldError{Field: fe.Field(), Message: validationMessage(fe)})
		}
		c.JSON(http.StatusBadRequest, gin.H{"errors": out})
		return false
	}

	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
	return false
}

func validationMessage(fe validator.FieldError) string {
	if msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// respondError maps service and repository errors to HTTP statuses.
// Anything unrecognised is logged and reported as a 500 with msg.
func respondError(c *gin.Context, logger *zap.Logger, err error, msg string) {
	switch {
	case errors.Is(err, service.ErrChatNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
	case errors.Is(err, service.ErrChatExists):
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to create chat"})
	case errors.Is(err, service.ErrEmailTaken):
		c.JSON(http.StatusBadRequest, gin.H{"error": "User with this email already exists"})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid credentials"})
	case errors.Is(err, service.ErrAssistantUnavailable):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "assistant is unavailable, please try again"})
	default:
		logger.Error(msg, zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}

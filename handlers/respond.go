package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"food-ordering-api/services"
	"food-ordering-api/statemachine"
)

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "error": message})
}

// respondError maps service errors onto HTTP statuses. Unexpected errors are logged and
// answered with a generic message.
func respondError(c *gin.Context, tag string, err error) {
	var transition *statemachine.TransitionError
	switch {
	case errors.As(err, &transition):
		c.JSON(http.StatusConflict, gin.H{
			"success":           false,
			"error":             transition.Error(),
			"current_status":    transition.From,
			"valid_next_states": statemachine.ValidTransitionsFrom(transition.From),
		})
	case errors.Is(err, services.ErrValidation):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrForbidden):
		fail(c, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrNotFound):
		fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrEmailTaken), errors.Is(err, services.ErrConflict):
		fail(c, http.StatusConflict, err.Error())
	default:
		log.Printf("[%s] [ERROR] %v", tag, err)
		fail(c, http.StatusInternalServerError, "Internal server error")
	}
}

// bindError turns binding failures into readable field messages.
func bindError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		msgs := make([]string, 0, len(validationErrors))
		for _, fe := range validationErrors {
			msgs = append(msgs, describeFieldError(fe))
		}
		fail(c, http.StatusBadRequest, strings.Join(msgs, "; "))
		return
	}
	fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", field, fe.Param())
	default:
		return field + " is invalid (" + fe.Tag() + ")"
	}
}

// ConfigureBinding decodes free-form JSON numbers as json.Number and makes validation
// messages report json field names instead of Go names.
func ConfigureBinding() {
	binding.EnableDecoderUseNumber = true

	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" {
			name = strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		}
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
}

// idParam reads a positive numeric path parameter.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		fail(c, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

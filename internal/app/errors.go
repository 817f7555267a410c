package app

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"hangoutapp/internal/service"
	"hangoutapp/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// respondServiceError maps domain errors to HTTP statuses. Transient store
// failures become 503 so clients know a retry may succeed; domain rule
// violations never do.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		util.NotFound(c, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		util.Forbidden(c, err.Error())
	case errors.Is(err, service.ErrDuplicateRequest), errors.Is(err, service.ErrNotPending):
		util.ErrorResponse(c, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, service.ErrStoreUnavailable):
		util.ErrorResponse(c, http.StatusServiceUnavailable, "service temporarily unavailable", nil)
	default:
		util.ErrorResponse(c, http.StatusBadRequest, err.Error(), nil)
	}
}

// respondBindingError turns a failed request binding into a 400 with readable
// per-field messages instead of validator's raw struct paths.
func respondBindingError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		messages := make([]string, 0, len(validationErrs))
		for _, fieldErr := range validationErrs {
			switch fieldErr.Tag() {
			case "required":
				messages = append(messages, fmt.Sprintf("%s is required", strings.ToLower(fieldErr.Field())))
			case "oneof":
				messages = append(messages, fmt.Sprintf("%s must be one of: %s", strings.ToLower(fieldErr.Field()), fieldErr.Param()))
			case "len":
				messages = append(messages, fmt.Sprintf("%s must be %s characters", strings.ToLower(fieldErr.Field()), fieldErr.Param()))
			default:
				messages = append(messages, fmt.Sprintf("%s is invalid", strings.ToLower(fieldErr.Field())))
			}
		}
		util.BadRequest(c, strings.Join(messages, "; "))
		return
	}

	util.BadRequest(c, "invalid request body")
}

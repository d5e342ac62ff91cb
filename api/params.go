package api

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"bidhouse/market"
)

// pathID parses a numeric path parameter. A malformed ID cannot name anything, so it is a not found.
func pathID(c *gin.Context, name string, notFound error) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w (id=%q)", notFound, raw)
	}
	return uint(id), nil
}

// bindJSON decodes the body into obj and turns binding failures into a ValidationError.
func bindJSON(c *gin.Context, obj any) error {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		ve := &market.ValidationError{}
		for _, fe := range fieldErrs {
			ve.Add(fe.Field(), describeFieldError(fe))
		}
		return ve
	}
	if errors.Is(err, io.EOF) {
		return market.NewValidationError("body", "request body is required")
	}
	return market.NewValidationError("body", "malformed JSON: "+err.Error())
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "email":
		return "enter a valid email address"
	case "datetime":
		return "use the format " + fe.Param()
	default:
		return "failed the " + fe.Tag() + " check"
	}
}

package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"bidhouse/market"
)

var errUnauthorized = errors.New("authentication required")

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// fail maps err to a status code and writes it. Unexpected errors are logged and hidden.
func (impl *ServerImpl) fail(c *gin.Context, op string, err error) {
	var verr *market.ValidationError
	switch {
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Message: "validation failed", Fields: verr.Fields})
	case errors.Is(err, market.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{Message: err.Error()})
	case errors.Is(err, market.ErrForbidden):
		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Message: err.Error()})
	case errors.Is(err, errUnauthorized):
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Message: err.Error()})
	default:
		impl.logger.Error("Request failed", slog.String("op", op), slog.Any("error", err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Message: "internal server error"})
	}
}

package handler

import (
	"errors"
	"net/http"
	"strconv"

	"foodcatalog/internal/service"
	"foodcatalog/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// writeError maps service errors onto HTTP statuses. input, when given, is
// echoed back so the client can re-populate its form.
func writeError(c *gin.Context, log zerolog.Logger, err error, input interface{}) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, response.Invalid(http.StatusBadRequest, "Validation failed", verr.Errors, input))
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, response.Invalid(http.StatusUnauthorized, err.Error(),
			[]service.FieldError{{Message: err.Error()}}, input))
	case errors.Is(err, service.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authentication required"))
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied"))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Not found"))
	case errors.Is(err, service.ErrIDMismatch):
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
	default:
		log.Error().Err(err).Str("method", c.Request.Method).Str("path", c.Request.URL.Path).Msg("request failed")
		c.JSON(http.StatusInternalServerError, response.Invalid(http.StatusInternalServerError,
			"An unexpected error occurred. Please try again.", nil, input))
	}
}

func invalidPayload(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
}

// productID parses the :id path segment
func productID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid product ID"))
		return 0, false
	}
	return uint(id), true
}

// userID parses the :id path segment
func userID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid user ID."))
		return uuid.Nil, false
	}
	return id, true
}

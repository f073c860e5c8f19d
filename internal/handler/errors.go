package handler

import (
	"errors"
	"net/http"

	"backend/internal/apperr"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// writeError maps service error kinds onto HTTP statuses. Missing-field
// validation errors additionally carry the field list so callers can correct
// their input.
func writeError(c *gin.Context, err error) {
	var missing *service.MissingFieldsError
	if errors.As(err, &missing) {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":         "error",
			"status_code":    http.StatusBadRequest,
			"error":          err.Error(),
			"missing_fields": missing.Fields,
		})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperr.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, apperr.ErrInvalidState):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, apperr.ErrConflict):
		status = http.StatusConflict
	}

	c.JSON(status, response.Error(status, err.Error()))
}

// currentActor reads the authenticated identity the middleware stored on the
// context.
func currentActor(c *gin.Context) (service.Actor, bool) {
	userID := c.GetString("userID")
	role := c.GetString("userRole")

	id, err := uuid.Parse(userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid user identity"))
		return service.Actor{}, false
	}
	return service.Actor{ID: id, Role: role}, true
}

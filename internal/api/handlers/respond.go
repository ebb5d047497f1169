package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/pricecast-go/internal/database"
	"github.com/irfndi/pricecast-go/internal/middleware"
	"github.com/irfndi/pricecast-go/internal/services"
	"github.com/irfndi/pricecast-go/internal/utils"
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var ve *utils.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, utils.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, utils.ErrEmptyInput),
		errors.Is(err, utils.ErrLengthMismatch),
		errors.Is(err, utils.ErrUnsupportedMarketplace):
		return http.StatusBadRequest
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrUpdateInProgress),
		errors.Is(err, database.ErrAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"error": ..., "kind": ...}. Internal failures are
// recorded on the span and not echoed to the client.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	body := gin.H{"error": err.Error()}
	if kind := utils.KindOf(err); kind != "" {
		body["kind"] = kind
	}
	if status == http.StatusInternalServerError {
		middleware.RecordError(c, err, "request failed")
		body = gin.H{"error": "internal server error"}
	}
	c.JSON(status, body)
}

// intQuery reads a positive integer query parameter, falling back to def
// when absent.
func intQuery(c *gin.Context, name string, def, max int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, utils.NewValidationErrorf("%s must be a positive integer", name)
	}
	if max > 0 && v > max {
		return 0, utils.NewValidationErrorf("%s must not exceed %d", name, max)
	}
	return v, nil
}

func intParam(c *gin.Context, name string) (int, error) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil || v <= 0 {
		return 0, utils.NewValidationErrorf("invalid %s", name)
	}
	return v, nil
}

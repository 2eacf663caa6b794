package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fuel-reconcile/internal/api/models"
	"fuel-reconcile/internal/data"
)

func writeError(c *gin.Context, status int, code, message string) {
	c.JSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// writeFetchError maps upstream failures onto HTTP statuses.
func writeFetchError(c *gin.Context, err error) {
	var apiErr *data.FleetAPIError
	if errors.As(err, &apiErr) {
		statusCode := http.StatusBadGateway
		switch apiErr.StatusCode {
		case http.StatusForbidden, http.StatusUnauthorized:
			statusCode = http.StatusUnauthorized
		case http.StatusTooManyRequests:
			statusCode = http.StatusTooManyRequests
		case 0:
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    apiErr.Code,
				Message: apiErr.Message,
				Details: map[string]interface{}{
					"status_code": apiErr.StatusCode,
					"retry_after": apiErr.RetryAfter,
				},
			},
		})
		return
	}
	if data.Error.Has(err) {
		writeError(c, http.StatusBadRequest, "DATA_FETCH_ERROR", err.Error())
		return
	}
	writeError(c, http.StatusBadGateway, "DATA_FETCH_ERROR", err.Error())
}

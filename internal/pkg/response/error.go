package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/orsched/or-scheduling-backend/internal/pkg/apperror"
)

// ErrorResponse defines the JSON structure for error responses.
type ErrorResponse struct {
	Error string        `json:"error"`
	Kind  apperror.Kind `json:"kind"`
	Field string        `json:"field,omitempty"`
}

// Error sends a JSON error response.
// It checks if the error is an AppError to determine the status code and kind.
// If it's not an AppError, it defaults to 500 Internal Server Error.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.Status, ErrorResponse{
			Error: appErr.Message,
			Kind:  appErr.Kind,
			Field: appErr.Field,
		})
		return
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error: "internal server error",
		Kind:  apperror.KindInternal,
	})
}

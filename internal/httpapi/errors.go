package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"banditd/internal/model"
)

type errorResponse struct {
	Error string `json:"error"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInvalidConfig),
		errors.Is(err, model.ErrInvalidArm),
		errors.Is(err, model.ErrInvalidValue):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNoPendingSuggestion):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		msg = http.StatusText(status)
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: msg})
}

func writeBadRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}

package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/veriflow/identity/internal/model"
)

// handleError maps each failure kind of the core to a distinct HTTP status.
// Transient failures are 503 so clients know a retry may succeed.
func handleError(c *gin.Context, err error) {
	var validationErr *model.ValidationError
	if errors.As(err, &validationErr) {
		respondError(c, http.StatusBadRequest, validationErr.Error())
		return
	}

	switch {
	case errors.Is(err, model.ErrConflict):
		respondError(c, http.StatusConflict, "account already exists")
	case errors.Is(err, model.ErrRateLimited):
		respondError(c, http.StatusTooManyRequests, "too many pending registration attempts, please try again later")
	case errors.Is(err, model.ErrNotFound):
		respondError(c, http.StatusNotFound, "account not found")
	case errors.Is(err, model.ErrCodeMismatch):
		respondError(c, http.StatusUnprocessableEntity, "invalid verification code")
	case errors.Is(err, model.ErrCodeExpired):
		respondError(c, http.StatusGone, "verification code expired, please register again")
	case errors.Is(err, model.ErrTokenExpired):
		respondError(c, http.StatusGone, "token expired, please request a new one")
	case errors.Is(err, model.ErrTokenInvalid), errors.Is(err, model.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, "invalid credentials")
	case model.IsTransient(err):
		respondError(c, http.StatusServiceUnavailable, "service temporarily unavailable, please retry")
	default:
		respondError(c, http.StatusInternalServerError, "internal server error")
	}
}

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"message": message,
	})
}

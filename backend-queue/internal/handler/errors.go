package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/prohmpiriya/take-a-number/backend-queue/internal/domain"
	"github.com/prohmpiriya/take-a-number/pkg/logger"
	"github.com/prohmpiriya/take-a-number/pkg/response"
)

// handleError converts domain errors to HTTP responses
func handleError(c *gin.Context, err error) {
	ctx := c.Request.Context()

	switch {
	case errors.Is(err, domain.ErrValidation):
		var details map[string]string
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) && validationErr.Field != "" {
			details = map[string]string{validationErr.Field: validationErr.Message}
		}
		c.JSON(http.StatusBadRequest, response.ValidationFailed(err.Error(), details))

	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, response.NotFound(err.Error()))

	case errors.Is(err, domain.ErrInvalidTransition):
		c.JSON(http.StatusConflict, response.InvalidTransition(err.Error()))

	case errors.Is(err, domain.ErrIntegrity):
		logger.ErrorCtx(ctx, "queue integrity violation", zap.Error(err), zap.String("path", c.FullPath()))
		c.JSON(http.StatusInternalServerError, response.IntegrityError(err.Error()))

	case errors.Is(err, domain.ErrStore):
		logger.ErrorCtx(ctx, "queue store failure", zap.Error(err), zap.String("path", c.FullPath()))
		c.JSON(http.StatusInternalServerError, response.StoreError(err.Error()))

	default:
		logger.ErrorCtx(ctx, "unexpected error", zap.Error(err), zap.String("path", c.FullPath()))
		c.JSON(http.StatusInternalServerError, response.InternalError("Internal server error"))
	}
}

// invalidBody responds to a request body that could not be decoded
func invalidBody(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, response.ValidationFailed("Invalid request body", map[string]string{
		"body": err.Error(),
	}))
}

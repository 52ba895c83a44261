package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mystery-server/internal/model"
)

// respondWithError maps domain sentinel errors to HTTP status codes.
// Unknown errors are not leaked to the client.
func respondWithError(c *gin.Context, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, model.ErrValidation):
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
	case errors.Is(err, model.ErrInsufficientCredits):
		c.JSON(http.StatusPaymentRequired, model.ErrorResponse{Error: "insufficient credits"})
	case errors.Is(err, model.ErrGenerationInProgress):
		c.JSON(http.StatusConflict, model.ErrorResponse{Error: "generation already in progress"})
	case errors.Is(err, model.ErrUserNotFound):
		c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "user not found"})
	case errors.Is(err, model.ErrGameNotFound):
		c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "game not found"})
	case errors.Is(err, model.ErrNotGameOwner):
		c.JSON(http.StatusForbidden, model.ErrorResponse{Error: "game belongs to another user"})
	case errors.Is(err, model.ErrAIGenerationFailed):
		c.JSON(http.StatusBadGateway, model.ErrorResponse{Error: "text generation failed"})
	case errors.Is(err, model.ErrImageGenerationFailed):
		c.JSON(http.StatusBadGateway, model.ErrorResponse{Error: "image generation failed"})
	default:
		logger.Error("Unhandled error in HTTP handler", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "internal server error"})
	}
}

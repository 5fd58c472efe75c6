package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storybot/model"
	"storybot/service"
)

const maxBodyBytes = 1 << 20

// WebhookHandler runs one turn per POSTed envelope and answers with the
// encoded reply envelope.
func WebhookHandler(bot *service.BotService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
			return
		}

		out, err := bot.HandleRaw(c.Request.Context(), body)
		if err != nil {
			if errors.Is(err, model.ErrDecode) || errors.Is(err, service.ErrBadRequest) {
				logger.Warn("rejecting webhook request", zap.Error(err))
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			logger.Error("webhook turn failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.Data(http.StatusOK, "application/json; charset=utf-8", out)
	}
}

// ConfigurationHandler lists the registered stories.
func ConfigurationHandler(bot *service.BotService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, bot.ClientConfiguration())
	}
}

package route

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storybot/api"
	"storybot/service"
)

// Register mounts the webhook under /{path} plus the health probes.
func Register(r *gin.Engine, bot *service.BotService, path string, logger *zap.Logger) {
	r.GET("/health", api.HealthHandler)
	r.GET("/healthcheck", api.HealthHandler)

	botGroup := r.Group("/" + path)
	{
		botGroup.POST("/webhook", api.WebhookHandler(bot, logger)) // POST /{path}/webhook
		botGroup.GET("/configuration", api.ConfigurationHandler(bot))
	}
}

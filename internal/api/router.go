package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"push-service/internal/config"
	"push-service/internal/logging"
)

func NewRouter(logger *logging.Logger, cfg config.Config, h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLoggingMiddleware(logger))
	r.Use(CORSMiddleware())

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Function-style entry point.
	r.POST("/", h.SendPush)
	r.OPTIONS("/", h.Preflight)

	api := r.Group(cfg.API.BasePath)
	{
		// Push
		api.POST("/push/send", h.SendPush)
		api.OPTIONS("/push/send", h.Preflight)

		// Alerts
		api.GET("/alerts/user/:user_id", h.GetAlertsByUserID)
		api.GET("/ws/:user_id", h.LiveAlerts)

		// Notification logs
		api.GET("/logs/user/:user_id", h.GetLogsByUserID)
	}
	return r
}

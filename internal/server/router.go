package server

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/enviroshake/gallery-backend/internal/handlers"
	"github.com/enviroshake/gallery-backend/internal/http/middleware"
	"github.com/enviroshake/gallery-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log             *logger.Logger
	ServiceName     string
	ExtraOrigins    []string
	HealthHandler   *handlers.HealthHandler
	DownloadHandler *handlers.DownloadHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.ExtraOrigins))
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(middleware.AttachTraceContext())
	router.Use(middleware.RequestLogger(cfg.Log))

	router.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	router.GET("/download-group/:groupId", cfg.DownloadHandler.DownloadGroup)
	router.POST("/download-multiple-groups", cfg.DownloadHandler.DownloadMultipleGroups)

	return router
}

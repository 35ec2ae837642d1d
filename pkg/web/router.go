package web

import (
	"github.com/gin-gonic/gin"
	"github.com/terrycain/tcga-cache/pkg/metrics"
)

func GetRouter(webHandler *Handlers, withMetrics bool) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), GinLogger())
	if withMetrics {
		router.Use(metrics.PromReqMiddleware())
	}
	router.Use(XForwardedProto("http"))

	router.GET("/healthz", HealthCheckEndpoint)
	router.GET("/ping", PingEndpoint)

	router.GET("/requests", webHandler.ListRequests)
	router.POST("/requests", webHandler.Resolve)
	router.GET("/requests/:fingerprint", webHandler.GetRequest)
	router.GET("/archive/:fingerprint", webHandler.ArchivePath)

	return router
}

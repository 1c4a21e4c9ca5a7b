package api

import (
	"Vigia/internal/api/middleware"
	"Vigia/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

const eventsPath = "/api/events"

func SetupRouter(group *HandlersGroup, allowedOrigins []string) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.AuditMiddleware("/api/ping", eventsPath))
	r.Use(middleware.CORSMiddleware(allowedOrigins))
	logger.SetupGin(r)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"code":    200,
				"message": "pong",
				"data":    nil,
			})
		})

		competitorGroup := apiGroup.Group("/competitors")
		{
			competitorGroup.GET("", group.CompetitorHandler.ListCompetitors)
			competitorGroup.POST("", group.CompetitorHandler.AddCompetitor)
			competitorGroup.GET("/version", group.CompetitorHandler.GetVersion)
			competitorGroup.POST("/batch/delete", group.CompetitorHandler.DeleteCompetitors)

			competitorGroup.GET("/:id", group.CompetitorHandler.GetCompetitor)
			competitorGroup.PUT("/:id", group.CompetitorHandler.UpdateCompetitor)
			competitorGroup.DELETE("/:id", group.CompetitorHandler.DeleteCompetitor)
			competitorGroup.POST("/:id/refresh", group.CompetitorHandler.RefreshMetrics)
			competitorGroup.GET("/:id/metrics/latest", group.MetricHandler.GetLatest)
			competitorGroup.GET("/:id/metrics/history", group.MetricHandler.GetHistory)
		}

		// 外部采集流程回写
		metricsGroup := apiGroup.Group("/metrics")
		{
			metricsGroup.POST("/snapshots", group.MetricHandler.RecordSnapshot)
			metricsGroup.POST("/init", group.MetricHandler.InitMetrics)
		}

		apiGroup.GET("/events", group.WSHandler.Connect)
	}

	return r
}

package app

import (
	"placement_test_backend/docs"
	"placement_test_backend/internal/config"
	"placement_test_backend/internal/middleware"
	"placement_test_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由（无需认证；webhook 必须允许匿名回调）
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/auth/token", c.auth.IssueToken)
		public.POST("/webhooks/quiz-result", c.webhook.SubmitQuizResult)
	}

	// 管理端路由
	admin := router.Group("/api")
	admin.Use(middleware.AuthMiddleware(cfg))
	{
		admin.GET("/results", c.result.ListResults)
		admin.GET("/results/export", c.result.ExportResults)
		admin.GET("/results/:docname", c.result.GetResult)
		admin.GET("/deliveries", c.result.ListDeliveries)
	}
}

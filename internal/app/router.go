package app

import (
	"compliance_training_backend/docs"
	"compliance_training_backend/internal/middleware"
	"compliance_training_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/health", c.health.HealthCheck)

	api := router.Group("/api")
	api.Use(middleware.TryAuthMiddleware(a.Config))
	{
		api.GET("/health", c.health.HealthCheck)

		// 1. 登录（无需令牌）
		api.POST("/auth/login", c.auth.Login)

		// 2. 员工本人数据
		a.registerEmployeeRoutes(api, c)

		// 3. 管理员接口
		a.registerAdminRoutes(api, c)
	}
}

func (a *App) registerEmployeeRoutes(api *gin.RouterGroup, c *controllers) {
	self := middleware.SelfOrAdminMiddleware(a.Config, "employeeId")

	api.GET("/auth/user/:employeeId", self, c.auth.GetUser)

	modules := api.Group("/modules/:employeeId", self)
	{
		modules.GET("", c.module.ListModules)
		modules.GET("/:moduleId", c.module.GetModule)
	}

	users := api.Group("/users/:employeeId", self)
	{
		users.PUT("/module/:moduleId/complete", c.user.CompleteModule)
		users.PUT("/certificate", c.user.GenerateCertificate)
		users.GET("/progress", c.user.GetProgress)
		users.POST("/email-results", c.user.EmailResults)
	}
}

func (a *App) registerAdminRoutes(api *gin.RouterGroup, c *controllers) {
	admin := api.Group("/admin", middleware.AdminMiddleware())
	{
		admin.GET("/email-results", c.admin.ListEmailResults)
	}
}

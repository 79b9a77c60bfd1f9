package router

import (
	"github.com/gin-gonic/gin"

	"github.com/aidanHorne978/Automated-Cypress-Testing/internal/http/handler"
	"github.com/aidanHorne978/Automated-Cypress-Testing/internal/http/middleware"
	"github.com/aidanHorne978/Automated-Cypress-Testing/internal/ratelimit"
	"github.com/aidanHorne978/Automated-Cypress-Testing/internal/service"
)

type RouterConfig struct {
	IsProduction bool
	Limiter      ratelimit.Limiter
}

func SetupRoutes(router *gin.Engine, services *service.Services, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	generateHandler := handler.NewGenerateHandler(services.Generation, cfg.IsProduction)
	snapshotHandler := handler.NewSnapshotHandler(services.Snapshots, cfg.IsProduction)
	historyHandler := handler.NewHistoryHandler(services.Generation)

	v1 := router.Group("/api/v1")
	{
		// Only the browser/model routes burn real resources; history reads
		// are not rate limited.
		limited := v1.Group("")
		limited.Use(middleware.RateLimit(cfg.Limiter))
		{
			limited.POST("/generate", generateHandler.Generate)
			limited.POST("/snapshot", snapshotHandler.Capture)
		}

		v1.GET("/generations", historyHandler.List)
		v1.GET("/generations/:id", historyHandler.Get)
	}
}

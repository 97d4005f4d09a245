package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/guttosm/etfpulse/internal/middleware"
)

// NewRouter creates a Gin engine with routes configured. It receives a
// Handler with all business logic already injected.
//
// Responsibilities:
//   - Registers global middlewares (RequestID, Logger, Recovery, RateLimiter).
//   - Adds request timeout handling (30 seconds; live-quote fan-out included).
//   - Mounts Swagger docs (/swagger/*any).
//   - Configures API v1 routes (/api/v1).
//
// Note:
//   - Health and readiness endpoints (/healthz, /readyz) are registered in
//     app.InitializeApp().
func NewRouter(handler *Handler) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.RecoveryMiddleware(),
		middleware.ErrorHandler,
		middleware.RateLimiter(),
	)

	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/refresh", handler.StartRefresh)
		v1.GET("/refresh/status", handler.RefreshStatus)
		v1.DELETE("/refresh", handler.CancelRefresh)

		v1.GET("/universe", handler.GetUniverse)
		v1.GET("/quotes", handler.GetQuotes)

		v1.GET("/portfolio", handler.GetPortfolio)
		v1.DELETE("/portfolio", handler.ClearPortfolio)
		v1.POST("/portfolio/positions", handler.UpsertPosition)
		v1.POST("/portfolio/accounts", handler.AddAccount)
		v1.PUT("/portfolio/accounts", handler.RenameAccount)
		v1.DELETE("/portfolio/accounts/:name", handler.DeleteAccount)
		v1.GET("/portfolio/saved", handler.ListSavedPortfolios)
		v1.POST("/portfolio/saved/:name", handler.SavePortfolioAs)
		v1.PUT("/portfolio/saved/:name", handler.LoadSavedPortfolio)
		v1.DELETE("/portfolio/saved/:name", handler.DeleteSavedPortfolio)
		v1.POST("/portfolio/stats", handler.PortfolioStats)

		v1.POST("/simulate", handler.Simulate)
	}

	return router
}

package handlers

import (
	"solana-portfolio-tracker/internal/services"

	"github.com/gin-gonic/gin"
)

// Router handles HTTP routing setup
type Router struct {
	portfolioHandler *PortfolioHandler
	displayHandler   *DisplayHandler
	healthHandler    *HealthHandler
}

// NewRouter creates a new Router instance with all handlers
func NewRouter(portfolioService services.PortfolioServiceInterface, controller DisplayController, healthHandler *HealthHandler) *Router {
	return &Router{
		portfolioHandler: NewPortfolioHandler(portfolioService),
		displayHandler:   NewDisplayHandler(controller),
		healthHandler:    healthHandler,
	}
}

// SetupRoutes configures the page and API routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	LoadTemplates(engine)
	engine.GET("/", r.displayHandler.GetPage)

	api := engine.Group("/api")
	{
		api.GET("/portfolio-value", r.portfolioHandler.GetPortfolioValue)
		api.GET("/display", r.displayHandler.GetSnapshot)
		api.POST("/display/restart", r.displayHandler.Restart)
	}
}

// SetupHealthRoutes configures health check routes
func (r *Router) SetupHealthRoutes(engine *gin.Engine) {
	health := engine.Group("/health")
	{
		health.GET("", r.healthHandler.GetHealth)          // Overall health
		health.GET("/live", r.healthHandler.GetLiveness)   // Liveness probe
		health.GET("/ready", r.healthHandler.GetReadiness) // Readiness probe
		health.GET("/rpc", r.healthHandler.GetRPCHealth)   // Solana RPC health
	}
}

package handlers

import (
	"net/http"

	"solana-portfolio-tracker/internal/models"
	"solana-portfolio-tracker/internal/services"
	"solana-portfolio-tracker/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PortfolioHandler serves the portfolio valuation
type PortfolioHandler struct {
	portfolioService services.PortfolioServiceInterface
}

// NewPortfolioHandler creates a new PortfolioHandler instance
func NewPortfolioHandler(portfolioService services.PortfolioServiceInterface) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
	}
}

// GetPortfolioValue handles GET /api/portfolio-value requests
func (h *PortfolioHandler) GetPortfolioValue(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	response, err := h.portfolioService.GetPortfolioValue(c.Request.Context())
	if err != nil {
		log.Error("Failed to compute portfolio value", zap.Error(err))

		appErr := models.NewAppErrorWithCause(
			models.ErrorCodeInternalError,
			"Failed to compute portfolio value",
			err,
		)
		models.HandleError(c, appErr, log)
		return
	}

	log.Debug("Portfolio value served",
		zap.Float64("value", response.Value),
		zap.Float64("previous_value", response.PreviousValue),
	)

	c.JSON(http.StatusOK, response)
}

package handlers

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"solana-portfolio-tracker/internal/models"
	"solana-portfolio-tracker/internal/services"
	"solana-portfolio-tracker/pkg/logger"

	"github.com/gin-gonic/gin"
)

// healthCheckTimeout bounds a single round of upstream checks
const healthCheckTimeout = 5 * time.Second

// HealthHandler handles health check endpoints
type HealthHandler struct {
	upstreams *services.UpstreamHealthChecker
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(upstreams *services.UpstreamHealthChecker) *HealthHandler {
	return &HealthHandler{
		upstreams: upstreams,
	}
}

// HealthResponse represents the overall health response
type HealthResponse struct {
	Status    services.HealthStatus            `json:"status"`
	Timestamp time.Time                        `json:"timestamp"`
	Services  map[string]*services.HealthCheck `json:"services"`
	Version   string                           `json:"version,omitempty"`
}

// GetHealth returns the overall health status
func (h *HealthHandler) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	checks := h.upstreams.CheckAll(ctx)
	overall := services.Overall(checks)

	statusCode := http.StatusOK
	if overall == services.HealthStatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, HealthResponse{
		Status:    overall,
		Timestamp: time.Now(),
		Services:  checks,
		Version:   "1.0.0",
	})
}

// GetLiveness returns a simple liveness check
func (h *HealthHandler) GetLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now(),
	})
}

// GetReadiness reports ready unless a critical upstream is down
func (h *HealthHandler) GetReadiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	checks := h.upstreams.CheckAll(ctx)
	if services.Overall(checks) == services.HealthStatusUnhealthy {
		appErr := models.NewAppErrorWithDetails(models.ErrorCodeRPCUnavailable, "Not ready", failedChecks(checks))
		appErr.StatusCode = http.StatusServiceUnavailable
		models.HandleError(c, appErr, logger.GetLogger().WithContext(c.Request.Context()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now(),
	})
}

// GetRPCHealth returns the Solana RPC check alone
func (h *HealthHandler) GetRPCHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	check, ok := h.upstreams.Check(ctx, services.UpstreamSolanaRPC)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"status":  services.HealthStatusUnhealthy,
			"message": "solana rpc check not registered",
		})
		return
	}

	statusCode := http.StatusOK
	if check.Status == services.HealthStatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}
	c.JSON(statusCode, check)
}

// failedChecks lists the unhealthy upstreams with their messages
func failedChecks(checks map[string]*services.HealthCheck) string {
	var failed []string
	for name, check := range checks {
		if check.Status == services.HealthStatusUnhealthy {
			failed = append(failed, name+": "+check.Message)
		}
	}
	sort.Strings(failed)
	return strings.Join(failed, "; ")
}

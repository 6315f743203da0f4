package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"solana-portfolio-tracker/pkg/logger"
	"solana-portfolio-tracker/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger.UseNop()
	engine := gin.New()
	engine.Use(handlers...)
	engine.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	engine.GET("/fail", func(c *gin.Context) { c.String(http.StatusBadGateway, "fail") })
	engine.GET("/empty", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	engine.POST("/echo", func(c *gin.Context) { c.String(http.StatusOK, "posted") })
	return engine
}

func TestMetricsMiddleware(t *testing.T) {
	mc := metrics.NewMetricsCollector()
	engine := newEngine(MetricsMiddleware(mc))

	for _, path := range []string{"/ok", "/ok", "/fail"} {
		engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	m := mc.GetMetrics()
	assert.Equal(t, int64(3), m.TotalRequests)
	assert.Equal(t, int64(2), m.SuccessfulRequests)
	assert.Equal(t, int64(1), m.FailedRequests)
	assert.Zero(t, m.ActiveRequests)
}

func TestPerformanceMiddlewareHeaders(t *testing.T) {
	engine := newEngine(PerformanceMiddleware(time.Second))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/empty", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Response-Time"))
	assert.NotEmpty(t, w.Header().Get("X-Response-Time-Ms"))
}

func TestRequestSizeMiddleware(t *testing.T) {
	engine := newEngine(RequestSizeMiddleware(8))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("tiny")))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "posted", w.Body.String())

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("far too large a body")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_REQUEST")
}

func TestConcurrencyMiddleware(t *testing.T) {
	mc := metrics.NewMetricsCollector()
	engine := newEngine(MetricsMiddleware(mc), ConcurrencyMiddleware(mc))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, "1", w.Header().Get("X-Active-Requests"))
}

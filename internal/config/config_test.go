package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("PORTFOLIO_WALLETS", "")
	t.Setenv("PORTFOLIO_GOAL", "")

	cfg := LoadConfig()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, DefaultWallets, cfg.Portfolio.Wallets)
	assert.Equal(t, 1000000.0, cfg.Portfolio.Goal)
	assert.Equal(t, 5*time.Second, cfg.Portfolio.RefreshWindow)
	assert.Equal(t, 5*time.Second, cfg.Display.PollInterval)
	assert.Equal(t, 500*time.Millisecond, cfg.Display.DirectionWindow)
	assert.Equal(t, 30, cfg.Display.ParticleCount)
	assert.Equal(t, "http://127.0.0.1:8080/api/portfolio-value", cfg.Display.Endpoint)
	assert.Equal(t, 10*time.Millisecond, cfg.Loading.Tick)
	assert.Equal(t, 2, cfg.Loading.Step)
	assert.Equal(t, 1.0, cfg.Loading.Threshold)
	assert.Equal(t, 300*time.Millisecond, cfg.Loading.CompleteDelay)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("PORTFOLIO_WALLETS", " walletA , ,walletB")
	t.Setenv("PORTFOLIO_GOAL", "250000.5")
	t.Setenv("DISPLAY_POLL_INTERVAL", "2s")
	t.Setenv("LOADING_STEP", "not-a-number")

	cfg := LoadConfig()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, []string{"walletA", "walletB"}, cfg.Portfolio.Wallets)
	assert.Equal(t, 250000.5, cfg.Portfolio.Goal)
	assert.Equal(t, 2*time.Second, cfg.Display.PollInterval)
	assert.Equal(t, 2, cfg.Loading.Step, "invalid values fall back to the default")
	assert.Equal(t, "http://127.0.0.1:9090/api/portfolio-value", cfg.Display.Endpoint)
}

func TestLoadConfigClampsJobIntervals(t *testing.T) {
	t.Setenv("DISPLAY_POLL_INTERVAL", "250ms")
	t.Setenv("RATE_LIMIT_CLEANUP_INTERVAL", "-1s")

	cfg := LoadConfig()

	assert.Equal(t, MinJobInterval, cfg.Display.PollInterval)
	assert.Equal(t, MinJobInterval, cfg.RateLimit.CleanupInterval)
}

package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct{ err error }

func (s stubChecker) IsHealthy(ctx context.Context) error { return s.err }

func TestUpstreamHealthChecker(t *testing.T) {
	checker := NewUpstreamHealthChecker()
	checker.Register("solana_rpc", stubChecker{}, true)
	checker.Register("price_api", stubChecker{err: errors.New("timeout")}, false)

	assert.Equal(t, []string{"price_api", "solana_rpc"}, checker.Names())

	t.Run("SingleCheck", func(t *testing.T) {
		hc, ok := checker.Check(context.Background(), "price_api")
		require.True(t, ok)
		assert.Equal(t, HealthStatusDegraded, hc.Status)
		assert.Equal(t, "timeout", hc.Message)

		_, ok = checker.Check(context.Background(), "missing")
		assert.False(t, ok)
	})

	t.Run("DegradedOverall", func(t *testing.T) {
		checks := checker.CheckAll(context.Background())
		require.Len(t, checks, 2)
		assert.Equal(t, HealthStatusHealthy, checks["solana_rpc"].Status)
		assert.Equal(t, HealthStatusDegraded, Overall(checks))
	})

	t.Run("CriticalFailure", func(t *testing.T) {
		checker.Register("solana_rpc", stubChecker{err: errors.New("down")}, true)
		assert.Equal(t, HealthStatusUnhealthy, Overall(checker.CheckAll(context.Background())))
	})
}

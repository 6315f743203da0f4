package services

import (
	"context"
	"sort"
	"sync"
	"time"
)

// HealthStatus represents the health status of a service
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
	HealthStatusDegraded  HealthStatus = "degraded"
)

// Upstream names used when registering health checks
const (
	UpstreamSolanaRPC = "solana_rpc"
	UpstreamPriceAPI  = "price_api"
)

// HealthCheck represents a health check result
type HealthCheck struct {
	Service      string        `json:"service"`
	Status       HealthStatus  `json:"status"`
	Message      string        `json:"message,omitempty"`
	ResponseTime time.Duration `json:"response_time"`
	Timestamp    time.Time     `json:"timestamp"`
}

// UpstreamHealthChecker runs the health checks of the named upstream dependencies.
// Critical upstreams make the whole service unhealthy when they fail; the others
// only degrade it.
type UpstreamHealthChecker struct {
	checkers map[string]HealthChecker
	critical map[string]bool
}

// NewUpstreamHealthChecker creates an empty checker
func NewUpstreamHealthChecker() *UpstreamHealthChecker {
	return &UpstreamHealthChecker{
		checkers: make(map[string]HealthChecker),
		critical: make(map[string]bool),
	}
}

// Register adds an upstream under name
func (u *UpstreamHealthChecker) Register(name string, checker HealthChecker, critical bool) {
	u.checkers[name] = checker
	u.critical[name] = critical
}

// Names returns the registered upstream names in order
func (u *UpstreamHealthChecker) Names() []string {
	names := make([]string, 0, len(u.checkers))
	for name := range u.checkers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Check runs one upstream's health check
func (u *UpstreamHealthChecker) Check(ctx context.Context, name string) (*HealthCheck, bool) {
	checker, ok := u.checkers[name]
	if !ok {
		return nil, false
	}

	start := time.Now()
	hc := &HealthCheck{Service: name, Timestamp: start}

	if err := checker.IsHealthy(ctx); err != nil {
		hc.Status = HealthStatusDegraded
		if u.critical[name] {
			hc.Status = HealthStatusUnhealthy
		}
		hc.Message = err.Error()
	} else {
		hc.Status = HealthStatusHealthy
		hc.Message = "ok"
	}
	hc.ResponseTime = time.Since(start)
	return hc, true
}

// CheckAll runs every registered check concurrently
func (u *UpstreamHealthChecker) CheckAll(ctx context.Context) map[string]*HealthCheck {
	results := make(map[string]*HealthCheck, len(u.checkers))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, name := range u.Names() {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			hc, _ := u.Check(ctx, name)
			mu.Lock()
			results[name] = hc
			mu.Unlock()
		}(name)
	}
	wg.Wait()

	return results
}

// Overall folds individual results into one status
func Overall(checks map[string]*HealthCheck) HealthStatus {
	overall := HealthStatusHealthy
	for _, check := range checks {
		if check.Status == HealthStatusUnhealthy {
			return HealthStatusUnhealthy
		}
		if check.Status == HealthStatusDegraded {
			overall = HealthStatusDegraded
		}
	}
	return overall
}

package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics is a point-in-time copy of the collected counters
type Metrics struct {
	// HTTP requests served
	TotalRequests       int64         `json:"total_requests"`
	SuccessfulRequests  int64         `json:"successful_requests"`
	FailedRequests      int64         `json:"failed_requests"`
	ActiveRequests      int64         `json:"active_requests"`
	AverageResponseTime time.Duration `json:"average_response_time"`
	MaxResponseTime     time.Duration `json:"max_response_time"`

	// Portfolio valuation
	Valuations       int64         `json:"valuations"`
	ValuationCached  int64         `json:"valuation_cached"`
	AverageValuation time.Duration `json:"average_valuation_time"`

	// Upstream calls
	RPCCalls         int64 `json:"rpc_calls"`
	RPCFailures      int64 `json:"rpc_failures"`
	PriceLookups     int64 `json:"price_lookups"`
	PriceFailures    int64 `json:"price_failures"`
	PriceCacheHits   int64 `json:"price_cache_hits"`
	PriceCacheMisses int64 `json:"price_cache_misses"`

	// Display polling
	Polls        int64 `json:"polls"`
	PollFailures int64 `json:"poll_failures"`
}

// MetricsCollector provides thread-safe metrics collection
type MetricsCollector struct {
	totalRequests      int64
	successfulRequests int64
	failedRequests     int64
	activeRequests     int64
	valuations         int64
	valuationCached    int64
	rpcCalls           int64
	rpcFailures        int64
	priceLookups       int64
	priceFailures      int64
	priceCacheHits     int64
	priceCacheMisses   int64
	polls              int64
	pollFailures       int64

	mutex             sync.Mutex
	totalResponseTime time.Duration
	maxResponseTime   time.Duration
	completed         int64
	totalValuation    time.Duration
	startTime         time.Time
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{startTime: time.Now()}
}

// RecordRequest records a new request
func (mc *MetricsCollector) RecordRequest() {
	atomic.AddInt64(&mc.totalRequests, 1)
	atomic.AddInt64(&mc.activeRequests, 1)
}

// RecordRequestComplete records request completion
func (mc *MetricsCollector) RecordRequestComplete(duration time.Duration, success bool) {
	atomic.AddInt64(&mc.activeRequests, -1)
	if success {
		atomic.AddInt64(&mc.successfulRequests, 1)
	} else {
		atomic.AddInt64(&mc.failedRequests, 1)
	}

	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	mc.completed++
	mc.totalResponseTime += duration
	if duration > mc.maxResponseTime {
		mc.maxResponseTime = duration
	}
}

// RecordValuation records a full portfolio recomputation
func (mc *MetricsCollector) RecordValuation(duration time.Duration) {
	atomic.AddInt64(&mc.valuations, 1)

	mc.mutex.Lock()
	mc.totalValuation += duration
	mc.mutex.Unlock()
}

// RecordValuationCached records a value served from the refresh window
func (mc *MetricsCollector) RecordValuationCached() {
	atomic.AddInt64(&mc.valuationCached, 1)
}

// RecordRPCCall records a Solana RPC call
func (mc *MetricsCollector) RecordRPCCall(success bool) {
	atomic.AddInt64(&mc.rpcCalls, 1)
	if !success {
		atomic.AddInt64(&mc.rpcFailures, 1)
	}
}

// RecordPriceLookup records a price source call
func (mc *MetricsCollector) RecordPriceLookup(success bool) {
	atomic.AddInt64(&mc.priceLookups, 1)
	if !success {
		atomic.AddInt64(&mc.priceFailures, 1)
	}
}

// RecordPriceCacheHit records a price served from cache
func (mc *MetricsCollector) RecordPriceCacheHit() {
	atomic.AddInt64(&mc.priceCacheHits, 1)
}

// RecordPriceCacheMiss records a price cache miss
func (mc *MetricsCollector) RecordPriceCacheMiss() {
	atomic.AddInt64(&mc.priceCacheMisses, 1)
}

// RecordPoll records one display refresh cycle
func (mc *MetricsCollector) RecordPoll(success bool) {
	atomic.AddInt64(&mc.polls, 1)
	if !success {
		atomic.AddInt64(&mc.pollFailures, 1)
	}
}

// GetMetrics returns a copy of current metrics
func (mc *MetricsCollector) GetMetrics() *Metrics {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	m := &Metrics{
		TotalRequests:      atomic.LoadInt64(&mc.totalRequests),
		SuccessfulRequests: atomic.LoadInt64(&mc.successfulRequests),
		FailedRequests:     atomic.LoadInt64(&mc.failedRequests),
		ActiveRequests:     atomic.LoadInt64(&mc.activeRequests),
		MaxResponseTime:    mc.maxResponseTime,
		Valuations:         atomic.LoadInt64(&mc.valuations),
		ValuationCached:    atomic.LoadInt64(&mc.valuationCached),
		RPCCalls:           atomic.LoadInt64(&mc.rpcCalls),
		RPCFailures:        atomic.LoadInt64(&mc.rpcFailures),
		PriceLookups:       atomic.LoadInt64(&mc.priceLookups),
		PriceFailures:      atomic.LoadInt64(&mc.priceFailures),
		PriceCacheHits:     atomic.LoadInt64(&mc.priceCacheHits),
		PriceCacheMisses:   atomic.LoadInt64(&mc.priceCacheMisses),
		Polls:              atomic.LoadInt64(&mc.polls),
		PollFailures:       atomic.LoadInt64(&mc.pollFailures),
	}
	if mc.completed > 0 {
		m.AverageResponseTime = mc.totalResponseTime / time.Duration(mc.completed)
	}
	if m.Valuations > 0 {
		m.AverageValuation = mc.totalValuation / time.Duration(m.Valuations)
	}
	return m
}

// GetUptime returns the uptime since metrics collection started
func (mc *MetricsCollector) GetUptime() time.Duration {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()
	return time.Since(mc.startTime)
}

// GetPriceCacheHitRatio returns the price cache hit ratio as a percentage
func (mc *MetricsCollector) GetPriceCacheHitRatio() float64 {
	hits := atomic.LoadInt64(&mc.priceCacheHits)
	total := hits + atomic.LoadInt64(&mc.priceCacheMisses)
	if total == 0 {
		return 0.0
	}
	return float64(hits) / float64(total) * 100.0
}

// GetSuccessRate returns the request success rate as a percentage
func (mc *MetricsCollector) GetSuccessRate() float64 {
	successful := atomic.LoadInt64(&mc.successfulRequests)
	total := successful + atomic.LoadInt64(&mc.failedRequests)
	if total == 0 {
		return 0.0
	}
	return float64(successful) / float64(total) * 100.0
}

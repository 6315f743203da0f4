package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"solana-portfolio-tracker/internal/config"
	"solana-portfolio-tracker/internal/models"
	"solana-portfolio-tracker/pkg/cache"
	"solana-portfolio-tracker/pkg/logger"
	"solana-portfolio-tracker/pkg/metrics"
	"solana-portfolio-tracker/pkg/mutex"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// maxConcurrentWallets bounds parallel wallet lookups against the RPC node
const maxConcurrentWallets = 4

// PortfolioService values the configured wallets and serves the total, recomputing
// at most once per refresh window.
type PortfolioService struct {
	tokens     TokenAccountSource
	prices     PriceSource
	priceCache *cache.Cache[decimal.Decimal]
	priceLocks *mutex.KeyedMutex
	flight     singleflight.Group
	config     *config.Config
	metrics    *metrics.MetricsCollector
	now        func() time.Time

	mu         sync.Mutex
	total      decimal.Decimal
	lastUpdate time.Time
	last       *models.Valuation
}

// NewPortfolioService creates a new PortfolioService instance
func NewPortfolioService(tokens TokenAccountSource, prices PriceSource, cfg *config.Config, mc *metrics.MetricsCollector) *PortfolioService {
	return &PortfolioService{
		tokens:     tokens,
		prices:     prices,
		priceCache: cache.New[decimal.Decimal](cfg.Price.CacheTTL),
		priceLocks: mutex.New(cfg.Price.CacheTTL),
		config:     cfg,
		metrics:    mc,
		now:        time.Now,
	}
}

// GetPortfolioValue returns the current total. Inside the refresh window the cached
// total is returned with previous_value equal to value; otherwise the total is
// recomputed and previous_value carries the total it replaced. Concurrent callers
// share a single recomputation.
func (s *PortfolioService) GetPortfolioValue(ctx context.Context) (*models.PortfolioValueResponse, error) {
	if resp, ok := s.cached(); ok {
		s.metrics.RecordValuationCached()
		return resp, nil
	}

	v, err, _ := s.flight.Do("portfolio", func() (interface{}, error) {
		if resp, ok := s.cached(); ok {
			return resp, nil
		}

		// The computation outlives any single caller; upstream clients carry their own timeouts.
		valuation := s.Calculate(context.WithoutCancel(ctx))

		s.mu.Lock()
		defer s.mu.Unlock()

		previous := s.total
		s.total = valuation.Total
		s.lastUpdate = s.now()
		s.last = valuation

		return &models.PortfolioValueResponse{
			Value:         valuation.Total.InexactFloat64(),
			PreviousValue: previous.InexactFloat64(),
			Timestamp:     s.lastUpdate,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.PortfolioValueResponse), nil
}

func (s *PortfolioService) cached() (*models.PortfolioValueResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastUpdate.IsZero() || s.now().Sub(s.lastUpdate) > s.config.Portfolio.RefreshWindow {
		return nil, false
	}

	value := s.total.InexactFloat64()
	return &models.PortfolioValueResponse{
		Value:         value,
		PreviousValue: value,
		Timestamp:     s.now(),
	}, true
}

// LastValuation returns the per-wallet breakdown of the latest recomputation, or nil
func (s *PortfolioService) LastValuation() *models.Valuation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Calculate values every configured wallet. Failures never abort the valuation:
// a wallet that cannot be listed contributes zero and is reported in its entry.
func (s *PortfolioService) Calculate(ctx context.Context) *models.Valuation {
	start := time.Now()
	log := logger.GetLogger().WithComponent("portfolio_service")

	wallets := s.config.Portfolio.Wallets
	results := make([]models.WalletValuation, len(wallets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentWallets)
	for i, address := range wallets {
		i, address := i, address
		g.Go(func() error {
			results[i] = s.valueWallet(gctx, address)
			return nil
		})
	}
	_ = g.Wait()

	total := decimal.Zero
	for _, wv := range results {
		total = total.Add(wv.Value)
	}

	duration := time.Since(start)
	s.metrics.RecordValuation(duration)

	log.Info("Portfolio valued",
		zap.Int("wallet_count", len(wallets)),
		zap.String("total_usd", total.StringFixed(2)),
		zap.Duration("duration", duration),
	)

	return &models.Valuation{
		Total:      total,
		Wallets:    results,
		ComputedAt: s.now(),
	}
}

func (s *PortfolioService) valueWallet(ctx context.Context, address string) models.WalletValuation {
	log := logger.GetLogger().WithFields(map[string]interface{}{
		"wallet_address": address,
		"component":      "portfolio_service",
	})

	holdings, err := s.tokens.GetWalletTokens(ctx, address)
	s.metrics.RecordRPCCall(err == nil)
	if err != nil {
		log.Error("Error fetching wallet tokens", zap.Error(err))
		return models.WalletValuation{Address: address, Value: decimal.Zero, Error: err.Error()}
	}

	value := decimal.Zero
	for _, holding := range holdings {
		value = value.Add(holding.Amount.Mul(s.priceFor(ctx, holding.Mint)))
	}

	log.Debug("Wallet valued",
		zap.Int("holdings", len(holdings)),
		zap.String("value_usd", value.StringFixed(2)),
	)

	return models.WalletValuation{Address: address, Holdings: len(holdings), Value: value}
}

// priceFor returns the cached price of mint, fetching it at most once per TTL.
// Unpriceable tokens are worth zero.
func (s *PortfolioService) priceFor(ctx context.Context, mint string) decimal.Decimal {
	if price, found := s.priceCache.Get(mint); found {
		s.metrics.RecordPriceCacheHit()
		return price
	}
	s.metrics.RecordPriceCacheMiss()

	unlock := s.priceLocks.Lock(mint)
	defer unlock()

	// Another wallet may have fetched the same mint while we waited
	if price, found := s.priceCache.Get(mint); found {
		return price
	}

	price, err := s.prices.GetTokenPrice(ctx, mint)
	s.metrics.RecordPriceLookup(err == nil || errors.Is(err, ErrNoPairs))

	switch {
	case errors.Is(err, ErrNoPairs):
		s.priceCache.Set(mint, decimal.Zero)
		return decimal.Zero
	case err != nil:
		logger.GetLogger().Warn("Error fetching token price",
			zap.String("mint", mint),
			zap.Error(err),
		)
		return decimal.Zero
	}

	s.priceCache.Set(mint, price)
	return price
}

// GetStats returns cache statistics for monitoring
func (s *PortfolioService) GetStats() map[string]interface{} {
	s.mu.Lock()
	lastUpdate := s.lastUpdate
	s.mu.Unlock()

	return map[string]interface{}{
		"wallet_count":      len(s.config.Portfolio.Wallets),
		"price_cache_size":  s.priceCache.Size(),
		"price_lock_count":  s.priceLocks.Size(),
		"refresh_window_ms": s.config.Portfolio.RefreshWindow.Milliseconds(),
		"last_update":       lastUpdate,
	}
}

// Stop gracefully shuts down the service
func (s *PortfolioService) Stop() {
	s.priceCache.Stop()
	s.priceLocks.Stop()
}

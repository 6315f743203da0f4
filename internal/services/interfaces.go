package services

import (
	"context"

	"solana-portfolio-tracker/internal/models"

	"github.com/shopspring/decimal"
)

// TokenAccountSource lists the SPL token holdings of a wallet
type TokenAccountSource interface {
	GetWalletTokens(ctx context.Context, address string) ([]models.TokenHolding, error)
}

// PriceSource quotes a token mint in USD
type PriceSource interface {
	GetTokenPrice(ctx context.Context, mint string) (decimal.Decimal, error)
}

// HealthChecker is implemented by every upstream dependency
type HealthChecker interface {
	IsHealthy(ctx context.Context) error
}

// PortfolioServiceInterface defines the interface for portfolio value operations
type PortfolioServiceInterface interface {
	GetPortfolioValue(ctx context.Context) (*models.PortfolioValueResponse, error)
}

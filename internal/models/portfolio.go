package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PortfolioValueResponse is the body of GET /api/portfolio-value
type PortfolioValueResponse struct {
	Value         float64   `json:"value"`
	PreviousValue float64   `json:"previous_value"`
	Timestamp     time.Time `json:"timestamp"`
}

// TokenHolding is a non-zero SPL token balance held by a wallet
type TokenHolding struct {
	Mint   string          `json:"mint"`
	Amount decimal.Decimal `json:"amount"`
}

// WalletValuation is the USD value of one wallet at valuation time
type WalletValuation struct {
	Address  string          `json:"address"`
	Holdings int             `json:"holdings"`
	Value    decimal.Decimal `json:"value"`
	Error    string          `json:"error,omitempty"`
}

// Valuation is one full recomputation of the portfolio
type Valuation struct {
	Total      decimal.Decimal   `json:"total"`
	Wallets    []WalletValuation `json:"wallets"`
	ComputedAt time.Time         `json:"computed_at"`
}

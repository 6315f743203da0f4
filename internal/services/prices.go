package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"solana-portfolio-tracker/internal/config"

	"github.com/shopspring/decimal"
)

var (
	// ErrNoPairs is returned when the price source knows no market for a mint
	ErrNoPairs = errors.New("no trading pairs for token")
	// ErrStatusCode is returned for non-2xx price source responses
	ErrStatusCode = errors.New("unexpected status code")
)

// healthProbeMint is wrapped SOL, always listed on DexScreener
const healthProbeMint = "So11111111111111111111111111111111111111112"

// DexScreenerClient quotes token prices from the DexScreener public API
type DexScreenerClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewDexScreenerClient creates a price client for cfg.BaseURL
func NewDexScreenerClient(cfg *config.PriceConfig) *DexScreenerClient {
	return &DexScreenerClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
	}
}

type tokenPairsResponse struct {
	Pairs []struct {
		PriceUSD decimal.Decimal `json:"priceUsd"`
	} `json:"pairs"`
}

// GetTokenPrice returns the USD price of the first pair listed for mint
func (d *DexScreenerClient) GetTokenPrice(ctx context.Context, mint string) (decimal.Decimal, error) {
	endpoint := d.baseURL + "/latest/dex/tokens/" + url.PathEscape(mint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to build price request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("price request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decimal.Zero, fmt.Errorf("%w: %d", ErrStatusCode, resp.StatusCode)
	}

	var body tokenPairsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode price response: %w", err)
	}

	if len(body.Pairs) == 0 {
		return decimal.Zero, ErrNoPairs
	}
	return body.Pairs[0].PriceUSD, nil
}

// IsHealthy checks that the price source answers for a well known mint
func (d *DexScreenerClient) IsHealthy(ctx context.Context) error {
	if _, err := d.GetTokenPrice(ctx, healthProbeMint); err != nil {
		return fmt.Errorf("price source health check failed: %w", err)
	}
	return nil
}

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"solana-portfolio-tracker/internal/config"
	"solana-portfolio-tracker/internal/models"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
)

// SolanaClient wraps the Solana RPC client with configuration
type SolanaClient struct {
	client *rpc.Client
	config *config.RPCConfig
}

// NewSolanaClient creates a new Solana RPC client
func NewSolanaClient(cfg *config.RPCConfig) *SolanaClient {
	return &SolanaClient{
		client: rpc.New(cfg.Endpoint),
		config: cfg,
	}
}

// parsedTokenAccount is the jsonParsed layout of an SPL token account
type parsedTokenAccount struct {
	Parsed struct {
		Info struct {
			Mint        string `json:"mint"`
			TokenAmount struct {
				UIAmount       *float64 `json:"uiAmount"`
				UIAmountString string   `json:"uiAmountString"`
			} `json:"tokenAmount"`
		} `json:"info"`
	} `json:"parsed"`
}

// GetWalletTokens returns the non-zero SPL token balances owned by address, retrying
// transient RPC failures.
func (s *SolanaClient) GetWalletTokens(ctx context.Context, address string) ([]models.TokenHolding, error) {
	owner, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return nil, fmt.Errorf("invalid wallet address: %w", err)
	}

	programID := solana.TokenProgramID
	conf := &rpc.GetTokenAccountsConfig{ProgramId: &programID}
	opts := &rpc.GetTokenAccountsOpts{Encoding: solana.EncodingJSONParsed}

	var lastErr error
	for attempt := 0; attempt <= s.config.MaxRetries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
		out, err := s.client.GetTokenAccountsByOwner(attemptCtx, owner, conf, opts)
		cancel()

		if err == nil {
			return holdingsFromAccounts(out)
		}
		lastErr = err

		if attempt < s.config.MaxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.config.RetryDelay * time.Duration(attempt+1)):
			}
		}
	}

	return nil, fmt.Errorf("failed to get token accounts after %d attempts: %w", s.config.MaxRetries+1, lastErr)
}

func holdingsFromAccounts(out *rpc.GetTokenAccountsResult) ([]models.TokenHolding, error) {
	if out == nil {
		return nil, fmt.Errorf("empty token accounts result")
	}

	holdings := make([]models.TokenHolding, 0, len(out.Value))
	for _, account := range out.Value {
		if account == nil || account.Account.Data == nil {
			continue
		}
		holding, ok := parseTokenAccount(account.Account.Data.GetRawJSON())
		if ok {
			holdings = append(holdings, holding)
		}
	}
	return holdings, nil
}

// parseTokenAccount extracts mint and UI amount from jsonParsed account data.
// Accounts without a mint or with a zero balance are skipped.
func parseTokenAccount(raw json.RawMessage) (models.TokenHolding, bool) {
	if len(raw) == 0 {
		return models.TokenHolding{}, false
	}

	var acc parsedTokenAccount
	if err := json.Unmarshal(raw, &acc); err != nil {
		return models.TokenHolding{}, false
	}

	info := acc.Parsed.Info
	if info.Mint == "" {
		return models.TokenHolding{}, false
	}

	amount := decimal.Zero
	if info.TokenAmount.UIAmountString != "" {
		if d, err := decimal.NewFromString(info.TokenAmount.UIAmountString); err == nil {
			amount = d
		}
	} else if info.TokenAmount.UIAmount != nil {
		amount = decimal.NewFromFloat(*info.TokenAmount.UIAmount)
	}

	if !amount.IsPositive() {
		return models.TokenHolding{}, false
	}
	return models.TokenHolding{Mint: info.Mint, Amount: amount}, true
}

// IsHealthy checks if the RPC endpoint is responsive
func (s *SolanaClient) IsHealthy(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := s.client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized); err != nil {
		return fmt.Errorf("RPC health check failed: %w", err)
	}
	return nil
}

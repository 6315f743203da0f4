package display

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"solana-portfolio-tracker/pkg/logger"
)

var (
	// ErrUnexpectedStatus is returned for non-2xx responses
	ErrUnexpectedStatus = errors.New("unexpected status from portfolio endpoint")
	// ErrMalformedResponse is returned when the body has no numeric value
	ErrMalformedResponse = errors.New("malformed portfolio value response")
)

// ValueFetcher retrieves the current portfolio value
type ValueFetcher interface {
	FetchValue(ctx context.Context) (float64, error)
}

// HTTPValueFetcher reads the value from the portfolio-value endpoint
type HTTPValueFetcher struct {
	endpoint string
	client   *http.Client
}

// NewHTTPValueFetcher creates a fetcher for endpoint
func NewHTTPValueFetcher(endpoint string, timeout time.Duration) *HTTPValueFetcher {
	return &HTTPValueFetcher{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type valuePayload struct {
	Value *float64 `json:"value"`
}

// FetchValue performs one GET against the endpoint
func (f *HTTPValueFetcher) FetchValue(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if id := logger.GetCorrelationIDFromContext(ctx); id != "" {
		req.Header.Set("X-Correlation-ID", id)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch portfolio value: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return 0, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var payload valuePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if payload.Value == nil {
		return 0, fmt.Errorf("%w: missing value", ErrMalformedResponse)
	}
	return *payload.Value, nil
}

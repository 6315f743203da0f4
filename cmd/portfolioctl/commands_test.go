package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"solana-portfolio-tracker/internal/models"
	"solana-portfolio-tracker/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteValuationTable(t *testing.T) {
	v := &models.Valuation{
		Total: decimal.RequireFromString("1234.5"),
		Wallets: []models.WalletValuation{
			{Address: "wallet-a", Holdings: 3, Value: decimal.RequireFromString("1234.5")},
			{Address: "wallet-b", Error: "rpc timeout"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, writeValuation(&buf, v, 1000000, false))

	out := buf.String()
	assert.Contains(t, out, "WALLET")
	assert.Contains(t, out, "$1,234.50")
	assert.Contains(t, out, "error: rpc timeout")
	assert.Contains(t, out, "$1,000,000.00 (0.12%)")
	assert.Contains(t, out, "$998,765.50 to go!")
}

func TestWriteValuationJSON(t *testing.T) {
	v := &models.Valuation{Total: decimal.RequireFromString("10")}

	var buf bytes.Buffer
	require.NoError(t, writeValuation(&buf, v, 1000000, true))
	assert.Contains(t, buf.String(), `"total": "10"`)
}

type sequenceFetcher struct {
	mu     sync.Mutex
	values []float64
	errs   []error
	i      int
}

func (f *sequenceFetcher) FetchValue(ctx context.Context) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.i
	f.i++
	if i < len(f.errs) && f.errs[i] != nil {
		return 0, f.errs[i]
	}
	return f.values[i], nil
}

func TestWatchPrintsDirection(t *testing.T) {
	fetcher := &sequenceFetcher{
		values: []float64{100, 150, 150, 120},
		errs:   []error{nil, nil, nil, nil},
	}

	var buf bytes.Buffer
	require.NoError(t, watch(context.Background(), fetcher, &buf, time.Millisecond, 4, 1000))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "▲ $100.00")
	assert.Contains(t, lines[1], "▲ $150.00")
	assert.Contains(t, lines[2], "• $150.00")
	assert.Contains(t, lines[3], "▼ $120.00")
	assert.Contains(t, lines[3], "$880.00 to go!")
}

func TestWatchReportsFailures(t *testing.T) {
	fetcher := &sequenceFetcher{
		values: []float64{0, 5},
		errs:   []error{errors.New("connection refused"), nil},
	}

	var buf bytes.Buffer
	require.NoError(t, watch(context.Background(), fetcher, &buf, time.Millisecond, 2, 1000))

	out := buf.String()
	assert.Contains(t, out, "fetch failed: connection refused")
	assert.Contains(t, out, "$5.00")
}

func TestWatchStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fetcher := &sequenceFetcher{values: []float64{1}}

	done := make(chan error, 1)
	go func() { done <- watch(ctx, fetcher, &bytes.Buffer{}, time.Hour, 0, 1000) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWriteHealth(t *testing.T) {
	checks := map[string]*services.HealthCheck{
		services.UpstreamPriceAPI:  {Service: services.UpstreamPriceAPI, Status: services.HealthStatusDegraded, Message: "timeout"},
		services.UpstreamSolanaRPC: {Service: services.UpstreamSolanaRPC, Status: services.HealthStatusHealthy, Message: "ok"},
	}

	var buf bytes.Buffer
	status := writeHealth(&buf, []string{services.UpstreamPriceAPI, services.UpstreamSolanaRPC}, checks)

	assert.Equal(t, services.HealthStatusDegraded, status)
	assert.Contains(t, buf.String(), "timeout")
	assert.Contains(t, buf.String(), "overall")
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b ,"))
	assert.Nil(t, splitList(""))
}

package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"solana-portfolio-tracker/internal/config"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPriceServer(t *testing.T, status int, body string) (*httptest.Server, *DexScreenerClient) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest/dex/tokens/MintA", r.URL.Path)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	client := NewDexScreenerClient(&config.PriceConfig{BaseURL: server.URL + "/", Timeout: time.Second})
	return server, client
}

func TestDexScreenerClientGetTokenPrice(t *testing.T) {
	t.Run("FirstPairWins", func(t *testing.T) {
		server, client := newPriceServer(t, http.StatusOK,
			`{"schemaVersion":"1.0.0","pairs":[{"priceUsd":"0.004512"},{"priceUsd":"9.99"}]}`)
		defer server.Close()

		price, err := client.GetTokenPrice(context.Background(), "MintA")
		require.NoError(t, err)
		assert.True(t, price.Equal(decimal.RequireFromString("0.004512")))
	})

	t.Run("NumericPrice", func(t *testing.T) {
		server, client := newPriceServer(t, http.StatusOK, `{"pairs":[{"priceUsd":12.5}]}`)
		defer server.Close()

		price, err := client.GetTokenPrice(context.Background(), "MintA")
		require.NoError(t, err)
		assert.True(t, price.Equal(decimal.RequireFromString("12.5")))
	})

	t.Run("NoPairs", func(t *testing.T) {
		server, client := newPriceServer(t, http.StatusOK, `{"pairs":null}`)
		defer server.Close()

		price, err := client.GetTokenPrice(context.Background(), "MintA")
		assert.ErrorIs(t, err, ErrNoPairs)
		assert.True(t, price.IsZero())
	})

	t.Run("BadStatus", func(t *testing.T) {
		server, client := newPriceServer(t, http.StatusTooManyRequests, `slow down`)
		defer server.Close()

		_, err := client.GetTokenPrice(context.Background(), "MintA")
		assert.ErrorIs(t, err, ErrStatusCode)
	})

	t.Run("MalformedBody", func(t *testing.T) {
		server, client := newPriceServer(t, http.StatusOK, `{"pairs":`)
		defer server.Close()

		_, err := client.GetTokenPrice(context.Background(), "MintA")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode")
	})
}

package display

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"solana-portfolio-tracker/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPValueFetcher(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    float64
		wantErr error
	}{
		{name: "value", status: http.StatusOK, body: `{"value":1234.5,"previous_value":1000,"timestamp":"2024-01-01T00:00:00Z"}`, want: 1234.5},
		{name: "zero", status: http.StatusOK, body: `{"value":0}`, want: 0},
		{name: "server error", status: http.StatusInternalServerError, body: `{}`, wantErr: ErrUnexpectedStatus},
		{name: "not json", status: http.StatusOK, body: `<html>`, wantErr: ErrMalformedResponse},
		{name: "missing value", status: http.StatusOK, body: `{"previous_value":1}`, wantErr: ErrMalformedResponse},
		{name: "null value", status: http.StatusOK, body: `{"value":null}`, wantErr: ErrMalformedResponse},
		{name: "string value", status: http.StatusOK, body: `{"value":"12"}`, wantErr: ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			got, err := NewHTTPValueFetcher(srv.URL, time.Second).FetchValue(context.Background())
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHTTPValueFetcherForwardsCorrelationID(t *testing.T) {
	var seen string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("X-Correlation-ID")
		w.Write([]byte(`{"value":1}`))
	}))
	defer srv.Close()

	ctx := logger.ContextWithCorrelationID(context.Background(), "poll-123")
	_, err := NewHTTPValueFetcher(srv.URL, time.Second).FetchValue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "poll-123", seen)
}

func TestHTTPValueFetcherUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPValueFetcher(url, time.Second).FetchValue(context.Background())
	assert.Error(t, err)
}

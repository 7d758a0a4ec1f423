package iex

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/hqm/backend/internal/contracts"
	"github.com/wonny/hqm/backend/pkg/config"
	"github.com/wonny/hqm/backend/pkg/httputil"
	"github.com/wonny/hqm/backend/pkg/logger"
)

const batchPayload = `{
  "AAPL": {"price": 187.5, "stats": {"companyName": "Apple Inc", "year1ChangePercent": 0.35, "month6ChangePercent": 0.2, "month3ChangePercent": null, "month1ChangePercent": 0.05}},
  "MSFT": {"price": null, "stats": {"year1ChangePercent": 0.3}},
  "brk.b": {"price": 410.2, "stats": {}}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{IEX: config.IEXConfig{Token: "Tpk_test", BaseURL: server.URL + "/", RateLimit: 100}}
	log := logger.NewNop()

	client, err := NewClient(httputil.New(cfg, log).DisableRetry(), cfg.IEX, log)
	require.NoError(t, err)
	return client
}

func TestFetchBatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stock/market/batch", r.URL.Path)
		assert.Equal(t, "AAPL,MSFT,BRK.B,ZZZZ", r.URL.Query().Get("symbols"))
		assert.Equal(t, "price,stats", r.URL.Query().Get("types"))
		assert.Equal(t, "Tpk_test", r.URL.Query().Get("token"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(batchPayload))
	})

	quotes, err := client.FetchBatch(context.Background(), "AAPL,MSFT,BRK.B,ZZZZ", contracts.AllPeriods())
	require.NoError(t, err)

	require.Len(t, quotes, 3)
	_, unknown := quotes["ZZZZ"]
	assert.False(t, unknown, "unknown tickers are absent")

	aapl := quotes["AAPL"]
	assert.Equal(t, 187.5, aapl.Price)
	assert.Equal(t, 0.35, aapl.Returns[contracts.Period1Y])
	_, ok := aapl.Returns[contracts.Period3M]
	assert.False(t, ok, "null return is absent")
	assert.Len(t, aapl.Returns, 3)

	assert.Zero(t, quotes["MSFT"].Price)
	assert.Equal(t, 410.2, quotes["BRK.B"].Price)
	assert.Empty(t, quotes["BRK.B"].Returns)
}

func TestFetchBatchFiltersPeriods(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(batchPayload))
	})

	quotes, err := client.FetchBatch(context.Background(), "AAPL", []contracts.PeriodLabel{contracts.Period1Y})
	require.NoError(t, err)
	assert.Equal(t, map[contracts.PeriodLabel]float64{contracts.Period1Y: 0.35}, quotes["AAPL"].Returns)
}

func TestFetchBatchErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		rateLimited bool
	}{
		{"forbidden", http.StatusForbidden, false},
		{"server error", http.StatusInternalServerError, false},
		{"rate limited", http.StatusTooManyRequests, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			_, err := client.FetchBatch(context.Background(), "AAPL", contracts.AllPeriods())
			require.Error(t, err)

			var dsErr *contracts.DataSourceError
			require.True(t, errors.As(err, &dsErr))
			assert.Equal(t, tt.status, dsErr.StatusCode)
			assert.Equal(t, "AAPL", dsErr.BatchKey)
			assert.ErrorIs(t, err, contracts.ErrDataSource)
			assert.Equal(t, tt.rateLimited, errors.Is(err, contracts.ErrRateLimited))
		})
	}
}

func TestFetchBatchMalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[1,2,3]`))
	})

	_, err := client.FetchBatch(context.Background(), "AAPL", contracts.AllPeriods())
	assert.ErrorIs(t, err, contracts.ErrDataSource)
}

func TestCircuitBreakerOpens(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	for i := 0; i < 3; i++ {
		_, err := client.FetchBatch(context.Background(), "AAPL", contracts.AllPeriods())
		require.Error(t, err)
	}
	assert.Equal(t, "open", client.State())

	_, err := client.FetchBatch(context.Background(), "AAPL", contracts.AllPeriods())
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.ErrorIs(t, err, contracts.ErrDataSource)
	assert.Equal(t, int32(3), calls.Load(), "open breaker must not reach the server")
}

func TestNewClientRequiresToken(t *testing.T) {
	_, err := NewClient(nil, config.IEXConfig{BaseURL: "https://example.test"}, logger.NewNop())
	assert.ErrorIs(t, err, contracts.ErrInvalidArgument)
}

func TestNewHTTPClientWithoutRedis(t *testing.T) {
	cfg := &config.Config{IEX: config.IEXConfig{RateLimit: 5}}
	assert.NotNil(t, NewHTTPClient(cfg, nil, logger.NewNop()))
}

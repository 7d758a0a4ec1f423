package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/hqm/backend/pkg/config"
)

func disabledClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(&config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)
	return client
}

func TestNewClient_Disabled(t *testing.T) {
	client := disabledClient(t)

	assert.False(t, client.Enabled())
	assert.NoError(t, client.Ping(context.Background()))
	assert.NoError(t, client.Close())
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(disabledClient(t), "test")
	cfg := IEXRateLimit(5)

	allowed, remaining, err := limiter.Allow(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, allowed, "requests pass when Redis is disabled")
	assert.Equal(t, cfg.Limit, remaining)

	assert.NoError(t, limiter.Wait(context.Background(), cfg))
}

func TestIEXRateLimit(t *testing.T) {
	tests := []struct {
		name      string
		perSecond float64
		wantLimit int
	}{
		{"whole", 5, 5},
		{"fractional rounds down", 2.7, 2},
		{"below one clamps to one", 0.5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := IEXRateLimit(tt.perSecond)
			assert.Equal(t, "iex", cfg.Key)
			assert.Equal(t, tt.wantLimit, cfg.Limit)
			assert.Equal(t, time.Second, cfg.Window)
		})
	}
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(disabledClient(t), "test")
	ctx := context.Background()

	var result string
	found, err := cache.Get(ctx, "key", &result)
	require.NoError(t, err)
	assert.False(t, found, "cache miss when Redis disabled")

	assert.NoError(t, cache.Set(ctx, "key", "value", TTLQuote))
	assert.NoError(t, cache.Delete(ctx, "key"))
}

func TestCache_GetOrSetDisabledCallsLoader(t *testing.T) {
	cache := NewCache(disabledClient(t), "test")

	calls := 0
	var dest []string
	err := cache.GetOrSet(context.Background(), "k", &dest, TTLRanking, func() (interface{}, error) {
		calls++
		return []string{"AAPL", "MSFT"}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{"AAPL", "MSFT"}, dest)
}

func TestCacheKeys(t *testing.T) {
	tests := []struct {
		name     string
		fn       func() string
		expected string
	}{
		{
			name:     "QuoteBatchKey",
			fn:       func() string { return QuoteBatchKey("AAPL,MSFT", []string{"year1", "month6"}) },
			expected: "quote:batch:year1+month6:AAPL,MSFT",
		},
		{
			name:     "RankingKey",
			fn:       func() string { return RankingKey("hqm") },
			expected: "ranking:latest:hqm",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

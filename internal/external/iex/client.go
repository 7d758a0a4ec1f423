package iex

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/wonny/hqm/backend/internal/contracts"
	"github.com/wonny/hqm/backend/pkg/config"
	"github.com/wonny/hqm/backend/pkg/httputil"
	"github.com/wonny/hqm/backend/pkg/logger"
	"github.com/wonny/hqm/backend/pkg/redis"
)

// Client handles communication with the IEX Cloud batch endpoint
// ⭐ SSOT: IEX Cloud API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *logger.Logger
	baseURL    string
	token      string
}

// NewClient creates a new IEX Cloud client
func NewClient(httpClient *httputil.Client, cfg config.IEXConfig, log *logger.Logger) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("%w: IEX_API_TOKEN is not set", contracts.ErrInvalidArgument)
	}

	return &Client{
		httpClient: httpClient,
		breaker:    newBreaker("iex"),
		logger:     log.WithComponent("iex"),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
	}, nil
}

// NewHTTPClient builds the shared transport for IEX: a local token bucket plus,
// when Redis is enabled, the cross-process sliding window limiter
func NewHTTPClient(cfg *config.Config, rdb *redis.Client, log *logger.Logger) *httputil.Client {
	client := httputil.New(cfg, log).
		WithLocalLimiter(rate.NewLimiter(rate.Limit(cfg.IEX.RateLimit), 1))

	if rdb.Enabled() {
		client = client.WithRateLimiter(redis.NewRateLimiter(rdb, "hqm"), redis.IEXRateLimit(cfg.IEX.RateLimit))
	}
	return client
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	st := gobreaker.Settings{Name: name}
	st.Interval = 60 * time.Second
	st.Timeout = 30 * time.Second
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= 3
	}
	return gobreaker.NewCircuitBreaker(st)
}

// State returns the circuit breaker state (closed, half-open, open)
func (c *Client) State() string {
	return c.breaker.State().String()
}

// FetchBatch implements contracts.QuoteSource
func (c *Client) FetchBatch(ctx context.Context, batchKey string, periods []contracts.PeriodLabel) (map[string]contracts.QuoteFields, error) {
	if batchKey == "" {
		return nil, fmt.Errorf("%w: empty batch key", contracts.ErrInvalidArgument)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		var body batchResponse
		if err := c.httpClient.GetJSON(ctx, c.batchURL(batchKey), &body); err != nil {
			return nil, err
		}
		return body, nil
	})
	if err != nil {
		return nil, c.wrapError(batchKey, err)
	}

	quotes := result.(batchResponse).quotes(periods)

	c.logger.WithFields(map[string]interface{}{
		"requested": strings.Count(batchKey, ",") + 1,
		"received":  len(quotes),
	}).Debug("Fetched IEX batch")

	return quotes, nil
}

// batchURL builds /stock/market/batch?symbols=…&types=price,stats&token=…
func (c *Client) batchURL(batchKey string) string {
	params := url.Values{}
	params.Set("symbols", batchKey)
	params.Set("types", "price,stats")
	params.Set("token", c.token)
	return fmt.Sprintf("%s/stock/market/batch?%s", c.baseURL, params.Encode())
}

// wrapError maps transport failures onto contracts.DataSourceError
func (c *Client) wrapError(batchKey string, err error) error {
	dsErr := &contracts.DataSourceError{BatchKey: batchKey, Err: err}

	var statusErr *httputil.StatusError
	if errors.As(err, &statusErr) {
		dsErr.StatusCode = statusErr.StatusCode
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.logger.WithField("state", c.State()).Warn("IEX circuit breaker rejected request")
	}

	return dsErr
}

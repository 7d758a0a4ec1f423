package s0_data

import (
	"context"
	"time"

	"github.com/wonny/hqm/backend/internal/contracts"
	"github.com/wonny/hqm/backend/pkg/logger"
	"github.com/wonny/hqm/backend/pkg/metrics"
	"github.com/wonny/hqm/backend/pkg/redis"
)

// CachedSource serves provider batches from Redis when available.
// With Redis disabled it is a pass-through.
type CachedSource struct {
	inner   contracts.QuoteSource
	cache   *redis.Cache
	ttl     time.Duration
	metrics *metrics.Registry
	logger  *logger.Logger
}

// NewCachedSource wraps inner with a batch response cache
func NewCachedSource(inner contracts.QuoteSource, cache *redis.Cache, ttl time.Duration, m *metrics.Registry, log *logger.Logger) *CachedSource {
	if ttl <= 0 {
		ttl = redis.TTLQuote
	}
	return &CachedSource{
		inner:   inner,
		cache:   cache,
		ttl:     ttl,
		metrics: m,
		logger:  log.WithComponent("quote_cache"),
	}
}

// FetchBatch implements contracts.QuoteSource
func (s *CachedSource) FetchBatch(ctx context.Context, batchKey string, periods []contracts.PeriodLabel) (map[string]contracts.QuoteFields, error) {
	names := make([]string, len(periods))
	for i, p := range periods {
		names[i] = string(p)
	}
	key := redis.QuoteBatchKey(batchKey, names)

	var cached map[string]contracts.QuoteFields
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.WithError(err).Warn("Quote cache read failed")
	}
	s.metrics.RecordCache("quote", found)
	if found {
		return cached, nil
	}

	quotes, err := s.inner.FetchBatch(ctx, batchKey, periods)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, quotes, s.ttl); err != nil {
		s.logger.WithError(err).Warn("Quote cache write failed")
	}

	return quotes, nil
}

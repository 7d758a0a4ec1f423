package s1_universe

import (
	"context"
	"fmt"

	"github.com/wonny/hqm/backend/internal/contracts"
	"github.com/wonny/hqm/backend/pkg/logger"
)

// Config holds universe filter criteria
type Config struct {
	Exclude []string `yaml:"exclude"` // 제외 티커
	Limit   int      `yaml:"limit"`   // 0 = 제한 없음
}

// Universe is the S0 output
// ⭐ SSOT: S0 → S1 유니버스 전달
type Universe struct {
	Tickers  []string          `json:"tickers"`
	Excluded map[string]string `json:"excluded"` // 제외 티커: 사유
	Loaded   int               `json:"loaded"`   // 원본 행 수
}

// Count returns the number of tickers
func (u *Universe) Count() int {
	return len(u.Tickers)
}

// Builder loads and cleans the universe
type Builder struct {
	source contracts.UniverseSource
	config Config
	logger *logger.Logger
}

// NewBuilder creates a new Universe Builder
func NewBuilder(source contracts.UniverseSource, config Config, log *logger.Logger) *Builder {
	return &Builder{
		source: source,
		config: config,
		logger: log.WithComponent("universe"),
	}
}

// Build loads tickers, normalizes them, drops duplicates (first occurrence
// wins) and applies exclusions and the size limit.
func (b *Builder) Build(ctx context.Context) (*Universe, error) {
	raw, err := b.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load universe: %w", err)
	}

	clean, dupes := contracts.DedupeTickers(raw)

	u := &Universe{
		Tickers:  make([]string, 0, len(clean)),
		Excluded: make(map[string]string),
		Loaded:   len(raw),
	}

	for _, t := range dupes {
		u.Excluded[t] = "duplicate"
	}

	excluded := make(map[string]struct{}, len(b.config.Exclude))
	for _, t := range b.config.Exclude {
		excluded[contracts.NormalizeTicker(t)] = struct{}{}
	}

	for _, t := range clean {
		if _, ok := excluded[t]; ok {
			u.Excluded[t] = "excluded by config"
			continue
		}
		if b.config.Limit > 0 && len(u.Tickers) >= b.config.Limit {
			u.Excluded[t] = "over limit"
			continue
		}
		u.Tickers = append(u.Tickers, t)
	}

	if len(dupes) > 0 {
		b.logger.WithFields(map[string]interface{}{
			"count":   len(dupes),
			"tickers": dupes,
		}).Warn("Dropped duplicate tickers")
	}

	if len(u.Tickers) == 0 {
		return nil, fmt.Errorf("%w: universe is empty", contracts.ErrInvalidArgument)
	}

	b.logger.WithFields(map[string]interface{}{
		"loaded":   u.Loaded,
		"tickers":  len(u.Tickers),
		"excluded": len(u.Excluded),
	}).Info("Universe built")

	return u, nil
}

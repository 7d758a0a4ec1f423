package selection

import (
	"fmt"
	"sort"

	"github.com/wonny/hqm/backend/internal/contracts"
	"github.com/wonny/hqm/backend/pkg/logger"
)

// Selector implements S3: stable top-N selection
// ⭐ SSOT: 상위 N 선별 로직은 여기서만
type Selector struct {
	logger *logger.Logger
}

// Result is a selection plus the rows that could not be ordered
type Result struct {
	Key      contracts.ScoreKey       `json:"key"`
	Rows     []contracts.RankedSymbol `json:"rows"`
	Excluded []string                 `json:"excluded,omitempty"` // rows lacking the key
}

// NewSelector creates a new selector
func NewSelector(logger *logger.Logger) *Selector {
	return &Selector{logger: logger.WithComponent("selector")}
}

// SelectTop returns the n rows with the largest key value, descending.
// Ties keep input order. Rows without the key are dropped. Output rows are
// copies re-ranked 1..k with k = min(n, rows with the key).
func (s *Selector) SelectTop(rows []contracts.RankedSymbol, key contracts.ScoreKey, n int) ([]contracts.RankedSymbol, error) {
	res, err := s.Select(rows, key, n)
	if err != nil {
		return nil, err
	}
	return res.Rows, nil
}

// Select is SelectTop that also reports the excluded tickers
func (s *Selector) Select(rows []contracts.RankedSymbol, key contracts.ScoreKey, n int) (*Result, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: top n must be positive, got %d", contracts.ErrInvalidArgument, n)
	}

	type scored struct {
		row   contracts.RankedSymbol
		score float64
	}

	candidates := make([]scored, 0, len(rows))
	res := &Result{Key: key}
	for _, r := range rows {
		v, ok := r.Score(key)
		if !ok {
			res.Excluded = append(res.Excluded, r.Ticker)
			continue
		}
		candidates = append(candidates, scored{row: r, score: v})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	k := min(n, len(candidates))
	res.Rows = make([]contracts.RankedSymbol, k)
	for i := 0; i < k; i++ {
		row := candidates[i].row.Clone()
		row.Rank = i + 1
		res.Rows[i] = row
	}

	if len(res.Excluded) > 0 {
		s.logger.WithFields(map[string]interface{}{
			"key":   string(key),
			"count": len(res.Excluded),
		}).Warn("Rows without a score were excluded")
	}

	s.logger.WithFields(map[string]interface{}{
		"key":       string(key),
		"input":     len(rows),
		"requested": n,
		"selected":  k,
	}).Info("Selection completed")

	return res, nil
}

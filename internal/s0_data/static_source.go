package s0_data

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/wonny/hqm/backend/internal/contracts"
)

// StaticSource serves quotes from memory. It backs offline runs
// (`momentum --quotes file.json`) and tests.
type StaticSource struct {
	quotes map[string]contracts.QuoteFields
}

// NewStaticSource creates a source over a fixed quote map
func NewStaticSource(quotes map[string]contracts.QuoteFields) *StaticSource {
	return &StaticSource{quotes: quotes}
}

// LoadStaticSource reads a JSON object of ticker → QuoteFields
func LoadStaticSource(path string) (*StaticSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read quotes file: %w", err)
	}

	var quotes map[string]contracts.QuoteFields
	if err := json.Unmarshal(data, &quotes); err != nil {
		return nil, fmt.Errorf("parse quotes file %s: %w", path, err)
	}

	return NewStaticSource(quotes), nil
}

// FetchBatch implements contracts.QuoteSource
func (s *StaticSource) FetchBatch(ctx context.Context, batchKey string, periods []contracts.PeriodLabel) (map[string]contracts.QuoteFields, error) {
	if err := ctx.Err(); err != nil {
		return nil, &contracts.DataSourceError{BatchKey: batchKey, Err: err}
	}

	out := make(map[string]contracts.QuoteFields)
	for _, t := range ParseBatchKey(batchKey) {
		q, ok := s.quotes[t]
		if !ok {
			continue
		}
		returns := make(map[contracts.PeriodLabel]float64, len(periods))
		for _, p := range periods {
			if v, ok := q.Returns[p]; ok {
				returns[p] = v
			}
		}
		out[t] = contracts.QuoteFields{Price: q.Price, Returns: returns}
	}
	return out, nil
}

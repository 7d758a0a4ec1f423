package iex

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/wonny/hqm/backend/internal/contracts"
)

// batchResponse is the /stock/market/batch payload keyed by upper-case ticker:
//
//	{"AAPL": {"price": 187.5, "stats": {"year1ChangePercent": 0.35, ...}}}
type batchResponse map[string]batchEntry

type batchEntry struct {
	Price *float64                   `json:"price"`
	Stats map[string]json.RawMessage `json:"stats"`
}

// quotes converts the payload. null or missing fields are absent, never zero.
func (r batchResponse) quotes(periods []contracts.PeriodLabel) map[string]contracts.QuoteFields {
	out := make(map[string]contracts.QuoteFields, len(r))
	for ticker, entry := range r {
		q := contracts.QuoteFields{Returns: make(map[contracts.PeriodLabel]float64, len(periods))}
		if entry.Price != nil {
			q.Price = *entry.Price
		}
		for _, p := range periods {
			if v, ok := entry.stat(p.ProviderField()); ok {
				q.Returns[p] = v
			}
		}
		out[strings.ToUpper(ticker)] = q
	}
	return out
}

func (e batchEntry) stat(field string) (float64, bool) {
	raw, ok := e.Stats[field]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return 0, false
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	return v, true
}

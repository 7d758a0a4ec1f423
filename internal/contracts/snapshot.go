package contracts

import (
	"fmt"
	"math"
	"slices"
	"time"
)

// Snapshot is the sealed, point-in-time set of SymbolRecords one run ranks.
// ⭐ SSOT: 랭킹은 봉인된 스냅샷에서만 수행
//
// Records keep universe order. The zero value is an unsealed, empty snapshot.
type Snapshot struct {
	records   []SymbolRecord
	index     map[string]int
	missing   []string
	requested int
	asOf      time.Time
	sealed    bool
}

// SnapshotBuilder accumulates records after batches resolve.
// Not safe for concurrent use.
type SnapshotBuilder struct {
	order   []string
	members map[string]struct{}
	records map[string]SymbolRecord
	sealed  bool
}

// NewSnapshotBuilder prepares a builder for the given universe order.
// A repeated ticker keeps its first position only.
func NewSnapshotBuilder(universe []string) *SnapshotBuilder {
	members := make(map[string]struct{}, len(universe))
	order := make([]string, 0, len(universe))
	for _, t := range universe {
		if _, dup := members[t]; dup {
			continue
		}
		members[t] = struct{}{}
		order = append(order, t)
	}
	return &SnapshotBuilder{
		order:   order,
		members: members,
		records: make(map[string]SymbolRecord, len(order)),
	}
}

// Universe returns the deduplicated universe in order
func (b *SnapshotBuilder) Universe() []string {
	return slices.Clone(b.order)
}

// Add stores the quote for ticker. A non-positive or NaN price marks the
// ticker missing. Tickers outside the universe are ignored and reported false.
func (b *SnapshotBuilder) Add(ticker string, q QuoteFields) bool {
	if _, ok := b.members[ticker]; !ok {
		return false
	}
	if q.Price <= 0 || math.IsNaN(q.Price) {
		return true
	}

	returns := make(map[PeriodLabel]float64, len(q.Returns))
	for p, v := range q.Returns {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		returns[p] = v
	}
	b.records[ticker] = NewSymbolRecord(ticker, q.Price, returns)
	return true
}

// Seal freezes the builder into a Snapshot. Tickers never added, or added
// without a usable price, end up in Missing. A builder seals once.
func (b *SnapshotBuilder) Seal(asOf time.Time) (*Snapshot, error) {
	if b.sealed {
		return nil, fmt.Errorf("%w: snapshot already sealed", ErrConsistency)
	}
	b.sealed = true

	snap := &Snapshot{
		records:   make([]SymbolRecord, 0, len(b.records)),
		index:     make(map[string]int, len(b.records)),
		requested: len(b.order),
		asOf:      asOf,
		sealed:    true,
	}

	for _, t := range b.order {
		rec, ok := b.records[t]
		if !ok {
			snap.missing = append(snap.missing, t)
			continue
		}
		snap.index[t] = len(snap.records)
		snap.records = append(snap.records, rec)
	}

	return snap, nil
}

// Sealed reports whether the snapshot is complete and safe to rank
func (s *Snapshot) Sealed() bool {
	return s != nil && s.sealed
}

// EnsureSealed returns ErrConsistency for nil or unsealed snapshots
func (s *Snapshot) EnsureSealed() error {
	if !s.Sealed() {
		return fmt.Errorf("%w: snapshot is not sealed", ErrConsistency)
	}
	return nil
}

// Len returns the number of usable records
func (s *Snapshot) Len() int { return len(s.records) }

// Requested returns the universe size the snapshot was built for
func (s *Snapshot) Requested() int { return s.requested }

// AsOf returns the seal time
func (s *Snapshot) AsOf() time.Time { return s.asOf }

// Records returns the usable records in universe order
func (s *Snapshot) Records() []SymbolRecord {
	return slices.Clone(s.records)
}

// Record looks up a ticker
func (s *Snapshot) Record(ticker string) (SymbolRecord, bool) {
	i, ok := s.index[ticker]
	if !ok {
		return SymbolRecord{}, false
	}
	return s.records[i], true
}

// Missing returns the tickers without usable quote data, in universe order
func (s *Snapshot) Missing() []string {
	return slices.Clone(s.missing)
}

// Values returns ticker → return for one period, defined values only
func (s *Snapshot) Values(p PeriodLabel) map[string]float64 {
	out := make(map[string]float64, len(s.records))
	for _, r := range s.records {
		if v, ok := r.Return(p); ok {
			out[r.Ticker()] = v
		}
	}
	return out
}

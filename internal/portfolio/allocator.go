package portfolio

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/wonny/hqm/backend/internal/contracts"
	"github.com/wonny/hqm/backend/pkg/logger"
)

// AllocatorConfig defines how a selection is turned into share counts
type AllocatorConfig struct {
	Weighting   contracts.Weighting
	Constraints Constraints
}

// DefaultAllocatorConfig returns equal weighting with no constraints
func DefaultAllocatorConfig() AllocatorConfig {
	return AllocatorConfig{
		Weighting:   contracts.WeightingEqual,
		Constraints: DefaultConstraints(),
	}
}

// Allocator implements S4: capital → integer share counts
// ⭐ SSOT: S4 포트폴리오 배분 로직은 여기서만
// 불변식: Σ shares × price ≤ capital (decimal 연산, 내림)
type Allocator struct {
	config AllocatorConfig
	logger *logger.Logger
}

// NewAllocator creates a new allocator
func NewAllocator(config AllocatorConfig, logger *logger.Logger) (*Allocator, error) {
	switch config.Weighting {
	case "":
		config.Weighting = contracts.WeightingEqual
	case contracts.WeightingEqual, contracts.WeightingScoreBased:
	default:
		return nil, fmt.Errorf("%w: unknown weighting %q", contracts.ErrInvalidArgument, config.Weighting)
	}
	if err := config.Constraints.Validate(); err != nil {
		return nil, err
	}

	return &Allocator{
		config: config,
		logger: logger,
	}, nil
}

// Weighting returns the configured weighting mode
func (a *Allocator) Weighting() contracts.Weighting {
	return a.config.Weighting
}

// fraction is an exact weight num/den, kept unreduced so floor division stays exact
type fraction struct {
	num decimal.Decimal
	den decimal.Decimal
}

// Allocate sizes each selected row against capital.
// Allocations keep selection order.
func (a *Allocator) Allocate(selected []contracts.RankedSymbol, capital float64) (*contracts.TradeList, error) {
	if math.IsNaN(capital) || math.IsInf(capital, 0) || capital <= 0 {
		return nil, fmt.Errorf("%w: capital must be a positive number, got %v", contracts.ErrInvalidArgument, capital)
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("%w: empty selection", contracts.ErrInvalidArgument)
	}
	for _, s := range selected {
		if math.IsNaN(s.Price) || math.IsInf(s.Price, 0) || s.Price <= 0 {
			return nil, fmt.Errorf("%w: %s has non-positive price %v", contracts.ErrInvalidArgument, s.Ticker, s.Price)
		}
	}

	capitalD := decimal.NewFromFloat(capital)
	reserve := decimal.NewFromFloat(a.config.Constraints.CashReserve)
	investable := capitalD.Mul(decimal.NewFromInt(1).Sub(reserve))

	// 1. Calculate weights
	weights := a.calculateWeights(selected)

	// 2. Apply constraints
	weights = a.applyConstraints(weights)

	// 3. Floor to whole shares
	trades := &contracts.TradeList{
		Weighting:   a.config.Weighting,
		Capital:     capitalD,
		Invested:    decimal.Zero,
		Allocations: make([]contracts.Allocation, 0, len(selected)),
	}

	for i, s := range selected {
		w := weights[i]
		price := decimal.NewFromFloat(s.Price)

		// shares = floor(investable × num / (den × price)), exact integer quotient
		shares, _ := investable.Mul(w.num).QuoRem(w.den.Mul(price), 0)
		cost := shares.Mul(price)

		trades.Allocations = append(trades.Allocations, contracts.Allocation{
			Ticker:       s.Ticker,
			Price:        s.Price,
			Weight:       w.num.Div(w.den).InexactFloat64(),
			PositionSize: investable.Mul(w.num).Div(w.den).RoundDown(2),
			Shares:       shares.IntPart(),
			Cost:         cost,
		})
		trades.Invested = trades.Invested.Add(cost)
	}

	trades.Cash = capitalD.Sub(trades.Invested)

	if !trades.WithinBudget() {
		return nil, fmt.Errorf("%w: invested %s exceeds capital %s",
			contracts.ErrConsistency, trades.Invested.String(), capitalD.String())
	}

	a.logger.WithFields(map[string]interface{}{
		"weighting": a.config.Weighting,
		"positions": len(trades.Allocations),
		"capital":   capitalD.StringFixed(2),
		"invested":  trades.Invested.StringFixed(2),
		"cash":      trades.Cash.StringFixed(2),
	}).Info("Allocation completed")

	return trades, nil
}

// calculateWeights returns one fraction per row, in row order
func (a *Allocator) calculateWeights(selected []contracts.RankedSymbol) []fraction {
	switch a.config.Weighting {
	case contracts.WeightingScoreBased:
		return a.scoreBasedWeight(selected)
	default:
		return equalWeight(len(selected))
	}
}

func equalWeight(n int) []fraction {
	weights := make([]fraction, n)
	den := decimal.NewFromInt(int64(n))
	for i := range weights {
		weights[i] = fraction{num: decimal.NewFromInt(1), den: den}
	}
	return weights
}

// scoreBasedWeight weights by HQM score; rows without a score weigh zero
func (a *Allocator) scoreBasedWeight(selected []contracts.RankedSymbol) []fraction {
	scores := make([]decimal.Decimal, len(selected))
	total := decimal.Zero
	for i, s := range selected {
		scores[i] = decimal.Zero
		if s.HQMScore != nil && *s.HQMScore > 0 && !math.IsInf(*s.HQMScore, 0) {
			scores[i] = decimal.NewFromFloat(*s.HQMScore)
		}
		total = total.Add(scores[i])
	}

	// Fallback to equal weight if all scores are zero
	if total.IsZero() {
		a.logger.Warn("No positive HQM scores in selection, falling back to equal weight")
		return equalWeight(len(selected))
	}

	weights := make([]fraction, len(selected))
	for i := range scores {
		weights[i] = fraction{num: scores[i], den: total}
	}
	return weights
}

// applyConstraints caps each weight at MaxWeight
func (a *Allocator) applyConstraints(weights []fraction) []fraction {
	maxW := a.config.Constraints.MaxWeight
	if maxW <= 0 {
		return weights
	}

	capped := decimal.NewFromFloat(maxW)
	for i, w := range weights {
		if w.num.GreaterThan(capped.Mul(w.den)) {
			weights[i] = fraction{num: capped, den: decimal.NewFromInt(1)}
		}
	}
	return weights
}

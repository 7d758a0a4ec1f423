package portfolio

import (
	"fmt"

	"github.com/wonny/hqm/backend/internal/contracts"
)

// Constraints bound how much of the capital a single allocation pass may commit
// ⭐ SSOT: 포트폴리오 제약조건은 여기서만
type Constraints struct {
	MaxWeight   float64 // 종목당 최대 비중 (0 = 제한 없음)
	CashReserve float64 // 현금 보유 비중 (0.0 ~ 1.0)
}

// DefaultConstraints returns the unconstrained setup: every dollar is investable
// SSOT: config/strategy/hqm_momentum.yaml portfolio
func DefaultConstraints() Constraints {
	return Constraints{
		MaxWeight:   0,
		CashReserve: 0,
	}
}

// Validate rejects out-of-range constraint values
func (c Constraints) Validate() error {
	if c.MaxWeight < 0 || c.MaxWeight > 1 {
		return fmt.Errorf("%w: max_weight must be in [0,1], got %v", contracts.ErrInvalidArgument, c.MaxWeight)
	}
	if c.CashReserve < 0 || c.CashReserve >= 1 {
		return fmt.Errorf("%w: cash_reserve must be in [0,1), got %v", contracts.ErrInvalidArgument, c.CashReserve)
	}
	return nil
}

package strategyconfig

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"
	_ "time/tzdata" // meta.timezone 검증용

	"github.com/robfig/cron/v3"

	"github.com/wonny/hqm/backend/internal/contracts"
)

// MaxBatchSize is the provider's symbol limit per batch request
const MaxBatchSize = 100

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap classifies every validation failure as an invalid argument
func (e ValidationError) Unwrap() error {
	return contracts.ErrInvalidArgument
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

var cronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}
	if cfg.Meta.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Meta.Timezone); err != nil {
			return ValidationError{"meta.timezone", err.Error()}
		}
	}
	if cfg.Meta.RefreshCron != "" {
		if _, err := cronParser.Parse(cfg.Meta.RefreshCron); err != nil {
			return ValidationError{"meta.refresh_cron", err.Error()}
		}
	}

	// === Universe ===
	switch cfg.Universe.Source {
	case "csv":
		if cfg.Universe.Path == "" {
			return ValidationError{"universe.path", "required for csv source"}
		}
	case "postgres":
	default:
		return ValidationError{"universe.source", fmt.Sprintf("must be csv or postgres, got %q", cfg.Universe.Source)}
	}
	if cfg.Universe.Limit < 0 {
		return ValidationError{"universe.limit", "must be >= 0"}
	}

	// === Fetch ===
	if cfg.Fetch.BatchSize <= 0 || cfg.Fetch.BatchSize > MaxBatchSize {
		return ValidationError{"fetch.batch_size", fmt.Sprintf("must be in [1, %d]", MaxBatchSize)}
	}
	if cfg.Fetch.Workers <= 0 {
		return ValidationError{"fetch.workers", "must be > 0"}
	}
	if cfg.Fetch.CacheTTL < 0 {
		return ValidationError{"fetch.cache_ttl", "must be >= 0"}
	}

	// === Signals ===
	if len(cfg.Signals.Periods) == 0 {
		return ValidationError{"signals.periods", "must not be empty"}
	}
	for i, p := range cfg.Signals.Periods {
		if _, err := contracts.ParsePeriod(p); err != nil {
			return ValidationError{fmt.Sprintf("signals.periods[%d]", i), fmt.Sprintf("unknown period %q", p)}
		}
		if slices.Index(cfg.Signals.Periods, p) != i {
			return ValidationError{fmt.Sprintf("signals.periods[%d]", i), fmt.Sprintf("duplicate period %q", p)}
		}
	}
	switch cfg.Signals.CompositePolicy {
	case "full_coverage", "present_only":
	default:
		return ValidationError{"signals.composite_policy", fmt.Sprintf("unknown policy %q", cfg.Signals.CompositePolicy)}
	}

	// === Selection ===
	if _, err := contracts.ParseStrategy(cfg.Selection.Strategy); err != nil {
		return ValidationError{"selection.strategy", fmt.Sprintf("unknown strategy %q", cfg.Selection.Strategy)}
	}
	if cfg.Selection.TopN <= 0 {
		return ValidationError{"selection.top_n", "must be > 0"}
	}

	// === Portfolio ===
	switch contracts.Weighting(cfg.Portfolio.Weighting) {
	case contracts.WeightingEqual, contracts.WeightingScoreBased:
	default:
		return ValidationError{"portfolio.weighting", fmt.Sprintf("unknown weighting %q", cfg.Portfolio.Weighting)}
	}
	if err := validatePctRange(cfg.Portfolio.MaxWeight, "portfolio.max_weight"); err != nil {
		return err
	}
	if cfg.Portfolio.CashReserve < 0 || cfg.Portfolio.CashReserve >= 1 {
		return ValidationError{"portfolio.cash_reserve", "must be in range [0, 1)"}
	}

	// === Report ===
	if cfg.Report.Output != "" {
		switch strings.ToLower(filepath.Ext(cfg.Report.Output)) {
		case ".xlsx", ".csv":
		default:
			return ValidationError{"report.output", "must end in .xlsx or .csv"}
		}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	// present_only는 누락 기간이 있는 종목의 점수를 부풀릴 수 있음
	if cfg.Signals.CompositePolicy == "present_only" {
		warnings = append(warnings, Warning{
			Code:    "PARTIAL_COVERAGE",
			Message: "present_only: tickers missing a period are scored on fewer periods",
		})
	}

	// 워커 수 대비 레이트 리밋 초과 우려
	if cfg.Fetch.Workers > 8 {
		warnings = append(warnings, Warning{
			Code:    "MANY_WORKERS",
			Message: "fetch.workers > 8: provider rate limit will throttle most requests",
		})
	}

	// MaxWeight가 균등 비중보다 작으면 현금이 남음
	if cfg.Portfolio.MaxWeight > 0 && cfg.Portfolio.MaxWeight*float64(cfg.Selection.TopN) < 1 {
		warnings = append(warnings, Warning{
			Code:    "IDLE_CASH",
			Message: "max_weight × top_n < 1: part of the capital can never be invested",
		})
	}

	return warnings
}

// Periods returns the configured periods as labels. Call after Validate.
func (c *Config) Periods() []contracts.PeriodLabel {
	out := make([]contracts.PeriodLabel, 0, len(c.Signals.Periods))
	for _, p := range c.Signals.Periods {
		out = append(out, contracts.PeriodLabel(p))
	}
	return out
}

// validatePctRange는 퍼센트 값이 0~1 범위인지 검증
func validatePctRange(pct float64, field string) error {
	if pct < 0 || pct > 1 {
		return ValidationError{field, "must be in range [0, 1]"}
	}
	return nil
}

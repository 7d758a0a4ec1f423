package strategyconfig

import "time"

// Config는 모멘텀 랭킹/배분 전략의 전체 설정
type Config struct {
	Meta      Meta      `yaml:"meta" json:"meta"`
	Universe  Universe  `yaml:"universe" json:"universe"`
	Fetch     Fetch     `yaml:"fetch" json:"fetch"`
	Signals   Signals   `yaml:"signals" json:"signals"`
	Selection Selection `yaml:"selection" json:"selection"`
	Portfolio Portfolio `yaml:"portfolio" json:"portfolio"`
	Report    Report    `yaml:"report" json:"report"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID  string `yaml:"strategy_id" json:"strategy_id"`
	Version     string `yaml:"version" json:"version"`
	Timezone    string `yaml:"timezone" json:"timezone"`
	RefreshCron string `yaml:"refresh_cron" json:"refresh_cron"` // 스케줄러 랭킹 갱신 주기
}

// Universe S0: 종목 풀
type Universe struct {
	Source  string   `yaml:"source" json:"source"` // "csv" | "postgres"
	Path    string   `yaml:"path" json:"path"`
	Column  string   `yaml:"column" json:"column"`
	Exclude []string `yaml:"exclude" json:"exclude"`
	Limit   int      `yaml:"limit" json:"limit"` // 0 = 전체
}

// Fetch S1: 시세 배치 수집
type Fetch struct {
	BatchSize int           `yaml:"batch_size" json:"batch_size"` // 공급자 배치 한도 100
	Workers   int           `yaml:"workers" json:"workers"`
	CacheTTL  time.Duration `yaml:"cache_ttl" json:"cache_ttl"`
}

// Signals S2: 기간별 백분위 + HQM 합성
type Signals struct {
	Periods         []string `yaml:"periods" json:"periods"`
	CompositePolicy string   `yaml:"composite_policy" json:"composite_policy"` // "full_coverage" | "present_only"
}

// Selection S3: 상위 N 선정
type Selection struct {
	Strategy string `yaml:"strategy" json:"strategy"` // "hqm" | "price_return"
	TopN     int    `yaml:"top_n" json:"top_n"`
}

// Portfolio S4: 자본 배분
type Portfolio struct {
	Weighting   string  `yaml:"weighting" json:"weighting"` // "equal" | "score_based"
	MaxWeight   float64 `yaml:"max_weight" json:"max_weight"`
	CashReserve float64 `yaml:"cash_reserve" json:"cash_reserve"`
}

// Report S5: 결과 출력
type Report struct {
	Output  string `yaml:"output" json:"output"` // .xlsx | .csv
	Console bool   `yaml:"console" json:"console"`
}

// Default returns the built-in configuration, identical to config/strategy/hqm_momentum.yaml
func Default() *Config {
	return &Config{
		Meta: Meta{
			StrategyID:  "hqm_momentum",
			Version:     "1.0.0",
			Timezone:    "America/New_York",
			RefreshCron: "0 30 17 * * 1-5",
		},
		Universe: Universe{
			Source: "csv",
			Path:   "config/universe/sp_500_stocks.csv",
			Column: "Ticker",
		},
		Fetch: Fetch{
			BatchSize: 100,
			Workers:   4,
			CacheTTL:  15 * time.Minute,
		},
		Signals: Signals{
			Periods:         []string{"year1", "month6", "month3", "month1"},
			CompositePolicy: "full_coverage",
		},
		Selection: Selection{
			Strategy: "hqm",
			TopN:     50,
		},
		Portfolio: Portfolio{
			Weighting: "equal",
		},
		Report: Report{
			Output:  "momentum strategy.xlsx",
			Console: true,
		},
	}
}

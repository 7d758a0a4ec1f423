package contracts

import (
	"context"
)

// UniverseSource loads the ticker universe (S0)
// ⭐ SSOT: 유니버스 로딩 인터페이스
type UniverseSource interface {
	Load(ctx context.Context) ([]string, error)
}

// QuoteSource fetches one provider batch (S1)
// ⭐ SSOT: 시세 공급자 인터페이스
//
// batchKey is the comma-joined ticker list. Tickers the provider does not
// know are absent from the result. Failures are *DataSourceError.
type QuoteSource interface {
	FetchBatch(ctx context.Context, batchKey string, periods []PeriodLabel) (map[string]QuoteFields, error)
}

// ReportWriter renders a finished run (S5)
// ⭐ SSOT: 리포트 출력 인터페이스
type ReportWriter interface {
	Write(ctx context.Context, report *Report) error
}

// RunRecorder persists run history
type RunRecorder interface {
	SaveRun(ctx context.Context, run *RunRecord) error
}

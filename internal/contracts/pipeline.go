package contracts

// Pipeline Stage 정의 (SSOT)
// 모든 로그, 메트릭, run 기록에서 이 상수를 사용해야 함
//
// 파이프라인 흐름:
//   S0 → S1 → S2 → S3 → S4 → S5
//   Universe  Quotes  Signals  Selection  Portfolio  Report

// Stage represents a pipeline stage
type Stage string

const (
	// StageUniverse S0: 유니버스 로딩
	// 책임: 티커 목록 로딩, 중복 제거
	// 위치: internal/s1_universe/
	StageUniverse Stage = "S0_UNIVERSE"

	// StageQuotes S1: 배치 시세 수집 및 스냅샷 봉인
	// 책임: 배치 분할, 동시 수집, 누락 티커 기록
	// 위치: internal/s0_data/
	StageQuotes Stage = "S1_QUOTES"

	// StageSignals S2: 기간별 백분위 및 HQM 점수
	// 위치: internal/s2_signals/
	StageSignals Stage = "S2_SIGNALS"

	// StageSelection S3: 상위 N 선별 (안정 정렬)
	// 위치: internal/selection/
	StageSelection Stage = "S3_SELECTION"

	// StagePortfolio S4: 자본 배분 및 정수 주식 수 산출
	// 위치: internal/portfolio/
	StagePortfolio Stage = "S4_PORTFOLIO"

	// StageReport S5: 리포트 출력 (xlsx/csv/console)
	// 위치: internal/report/
	StageReport Stage = "S5_REPORT"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// ShortName returns abbreviated stage name (e.g., "S0", "S1")
func (s Stage) ShortName() string {
	switch s {
	case StageUniverse:
		return "S0"
	case StageQuotes:
		return "S1"
	case StageSignals:
		return "S2"
	case StageSelection:
		return "S3"
	case StagePortfolio:
		return "S4"
	case StageReport:
		return "S5"
	default:
		return "UNKNOWN"
	}
}

// Description returns Korean description of the stage
func (s Stage) Description() string {
	switch s {
	case StageUniverse:
		return "유니버스 로딩"
	case StageQuotes:
		return "배치 시세 수집"
	case StageSignals:
		return "백분위/HQM 점수"
	case StageSelection:
		return "상위 종목 선별"
	case StagePortfolio:
		return "자본 배분"
	case StageReport:
		return "리포트 출력"
	default:
		return "알 수 없음"
	}
}

// AllStages returns all pipeline stages in order
func AllStages() []Stage {
	return []Stage{
		StageUniverse,
		StageQuotes,
		StageSignals,
		StageSelection,
		StagePortfolio,
		StageReport,
	}
}

// IsValidStage checks if a stage string is valid
func IsValidStage(s string) bool {
	for _, stage := range AllStages() {
		if string(stage) == s {
			return true
		}
	}
	return false
}

// PipelineResult represents the result of a pipeline stage execution
type PipelineResult struct {
	Stage       Stage  `json:"stage"`
	Success     bool   `json:"success"`
	InputCount  int    `json:"input_count"`
	OutputCount int    `json:"output_count"`
	Duration    int64  `json:"duration_ms"`
	Error       string `json:"error,omitempty"`
}

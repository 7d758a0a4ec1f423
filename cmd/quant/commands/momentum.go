package commands

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/hqm/backend/internal/brain"
	"github.com/wonny/hqm/backend/internal/contracts"
	"github.com/wonny/hqm/backend/internal/report"
)

// momentumCmd represents the momentum command
var momentumCmd = &cobra.Command{
	Use:   "momentum",
	Short: "모멘텀 랭킹 + 매수 수량 계산",
	Long: `Universe 전체 시세를 받아 모멘텀 랭킹을 만들고 매수 수량을 계산합니다.

Strategies:
  price_return  - 1년 수익률 상위 N개, 동일 비중
  hqm           - 4개 기간 수익률 백분위 평균 (High-Quality Momentum)
  both          - 같은 시세 스냅샷으로 두 전략 모두 실행 (자본금은 전략별로 입력)

--capital을 생략하면 전략마다 자본금을 물어봅니다.

Example:
  go run ./cmd/quant momentum
  go run ./cmd/quant momentum --strategy both --capital 10000
  go run ./cmd/quant momentum --quotes testdata/quotes.json --output ranking.csv`,
	RunE: runMomentum,
}

var (
	momentumStrategy string
	momentumCapital  string
	momentumTop      int
	momentumOutput   string
	momentumQuotes   string
	momentumNoFile   bool
)

func init() {
	rootCmd.AddCommand(momentumCmd)

	momentumCmd.Flags().StringVar(&momentumStrategy, "strategy", "", "price_return | hqm | both (default: selection.strategy)")
	momentumCmd.Flags().StringVar(&momentumCapital, "capital", "", "포트폴리오 금액 (생략 시 입력 프롬프트)")
	momentumCmd.Flags().IntVar(&momentumTop, "top", 0, "선정 종목 수 (default: selection.top_n)")
	momentumCmd.Flags().StringVar(&momentumOutput, "output", "", "리포트 파일 .xlsx | .csv (default: report.output)")
	momentumCmd.Flags().StringVar(&momentumQuotes, "quotes", "", "IEX 대신 사용할 오프라인 시세 JSON")
	momentumCmd.Flags().BoolVar(&momentumNoFile, "no-file", false, "리포트 파일을 쓰지 않음")
}

func runMomentum(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	strategies, err := parseStrategies(momentumStrategy, a.strategy.Selection.Strategy)
	if err != nil {
		return err
	}

	topN := a.strategy.Selection.TopN
	if momentumTop != 0 {
		topN = momentumTop
	}

	capital, err := capitalFunc(momentumCapital, cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		return err
	}

	writer, err := buildWriter(a, len(strategies) > 1, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	o, err := a.orchestrator(momentumQuotes, writer, a.recorder())
	if err != nil {
		return err
	}

	result, err := o.Run(ctx, brain.RunConfig{
		Strategies: strategies,
		TopN:       topN,
		Capital:    capital,
	})
	if err != nil {
		return err
	}

	printRunSummary(cmd.OutOrStdout(), result)
	return nil
}

// parseStrategies resolves the --strategy flag, falling back to the configured strategy
func parseStrategies(flagValue, configured string) ([]contracts.Strategy, error) {
	v := flagValue
	if v == "" {
		v = configured
	}
	if v == "both" {
		return []contracts.Strategy{contracts.StrategyPriceReturn, contracts.StrategyHQM}, nil
	}

	s, err := contracts.ParseStrategy(v)
	if err != nil {
		return nil, err
	}
	return []contracts.Strategy{s}, nil
}

// buildWriter combines the file report with the console table
func buildWriter(a *app, perStrategy bool, console io.Writer) (contracts.ReportWriter, error) {
	var writers report.Multi

	if !momentumNoFile {
		path := a.strategy.Report.Output
		if momentumOutput != "" {
			path = momentumOutput
		}
		if path == "" {
			path = report.DefaultOutputPath
		}

		var fw contracts.ReportWriter
		var err error
		if perStrategy {
			fw, err = report.NewPerStrategyWriter(path, a.log)
		} else {
			fw, err = report.NewFileWriter(path, a.log)
		}
		if err != nil {
			return nil, err
		}
		writers = append(writers, fw)
	}

	if a.strategy.Report.Console {
		writers = append(writers, report.NewConsoleWriter(console))
	}

	if len(writers) == 0 {
		return report.Discard, nil
	}
	return writers, nil
}

func printRunSummary(out io.Writer, result *brain.RunResult) {
	fmt.Fprintln(out)
	PrintDoubleSeparator(out)
	fmt.Fprintf(out, "  Universe  : %d tickers\n", result.Universe.Count())
	fmt.Fprintf(out, "  Missing   : %d\n", len(result.Snapshot.Missing()))
	for _, pass := range result.Passes {
		line := fmt.Sprintf("%-12s selected %d", pass.Strategy, len(pass.Report.Rows))
		if t := pass.Report.Trades; t != nil {
			line += fmt.Sprintf(", invested $%s of $%s", t.Invested.StringFixed(2), t.Capital.StringFixed(2))
		}
		fmt.Fprintf(out, "  %s\n", line)
	}
	fmt.Fprintf(out, "  Duration  : %s\n", result.Duration.Round(time.Millisecond))
	PrintDoubleSeparator(out)
}

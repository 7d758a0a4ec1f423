package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/hqm/backend/internal/contracts"
	"github.com/wonny/hqm/backend/internal/s1_universe"
)

// universeCmd represents the universe command
var universeCmd = &cobra.Command{
	Use:   "universe",
	Short: "Universe 관리",
	Long: `종목 Universe를 조회하거나 PostgreSQL로 가져옵니다.

Subcommands:
  show    - 현재 설정된 Universe 출력 (universe.source 기준)
  import  - CSV 파일을 data.universe 테이블로 가져오기

Example:
  go run ./cmd/quant universe show
  go run ./cmd/quant universe import config/universe/sp_500_stocks.csv`,
}

var (
	universeShowCmd = &cobra.Command{
		Use:   "show",
		Short: "현재 Universe 출력",
		RunE:  showUniverse,
	}

	universeImportCmd = &cobra.Command{
		Use:   "import [csv_file]",
		Short: "CSV → data.universe",
		Args:  cobra.ExactArgs(1),
		RunE:  importUniverse,
	}

	universeColumn string
)

func init() {
	rootCmd.AddCommand(universeCmd)
	universeCmd.AddCommand(universeShowCmd)
	universeCmd.AddCommand(universeImportCmd)

	universeImportCmd.Flags().StringVar(&universeColumn, "column", "", "티커 컬럼명 (default: universe.column)")
}

func showUniverse(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	source, err := a.universeSource()
	if err != nil {
		return err
	}

	universe, err := s1_universe.NewBuilder(source, s1_universe.Config{
		Exclude: a.strategy.Universe.Exclude,
		Limit:   a.strategy.Universe.Limit,
	}, a.log).Build(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	PrintDoubleSeparator(out)
	PrintKeyValue(out, "Source", a.strategy.Universe.Source, 8)
	PrintKeyValue(out, "Tickers", fmt.Sprintf("%d", universe.Count()), 8)
	PrintSeparator(out)
	PrintColumns(out, universe.Tickers, 10)
	return nil
}

func importUniverse(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.db == nil {
		return fmt.Errorf("%w: universe import needs DATABASE_URL", contracts.ErrInvalidArgument)
	}

	column := a.strategy.Universe.Column
	if universeColumn != "" {
		column = universeColumn
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open universe file: %w", err)
	}
	defer f.Close()

	tickers, err := s1_universe.ReadTickers(ctx, f, column)
	if err != nil {
		return err
	}

	n, err := s1_universe.NewRepository(a.db.Pool).Replace(ctx, tickers)
	if err != nil {
		return err
	}

	a.log.WithFields(map[string]interface{}{
		"path":    args[0],
		"read":    len(tickers),
		"written": n,
	}).Info("Universe imported")

	PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("%d tickers imported into data.universe", n))
	return nil
}

package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	strategyFile string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "HQM - High-Quality Momentum 랭킹 엔진",
	Long: `HQM Unified CLI

S&P 500 Universe를 대상으로 기간별 수익률 백분위를 계산해
모멘텀 랭킹을 만들고, 주어진 자본금으로 매수 수량을 계산합니다.
S0 Universe → S1 Quotes → S2 Signals → S3 Selection → S4 Portfolio → S5 Report

Usage:
  go run ./cmd/quant [command]

Examples:
  go run ./cmd/quant momentum --strategy hqm --capital 10000
  go run ./cmd/quant universe import config/universe/sp_500_stocks.csv
  go run ./cmd/quant api --with-scheduler
  go run ./cmd/quant scheduler start`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&strategyFile, "config", "", "strategy YAML (default is STRATEGY_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

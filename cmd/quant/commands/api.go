package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/hqm/backend/internal/api"
	"github.com/wonny/hqm/backend/internal/api/handlers"
	"github.com/wonny/hqm/backend/internal/report"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- HTTP API 서버 시작
- 랭킹 조회 / 매수 수량 계산 엔드포인트 제공
- --with-scheduler 시 랭킹 자동 갱신 (meta.refresh_cron)

Endpoints:
  GET  /health                              - Health check
  GET  /metrics                             - Prometheus metrics
  GET  /api/momentum/ranking                - 최신 랭킹 (?strategy=&top=&refresh=&format=json|xlsx|csv)
  POST /api/momentum/allocate               - 매수 수량 계산 {strategy, top_n, capital}
  GET  /api/momentum/runs                   - 실행 이력 (DATABASE_URL 필요)
  GET  /api/momentum/runs/latest            - 전략별 최신 실행
  GET  /api/momentum/runs/{id}/positions    - 실행별 종목

Example:
  go run ./cmd/quant api
  go run ./cmd/quant api --port 8080 --with-scheduler`,
	RunE: runAPIServer,
}

var (
	apiPort          string
	apiWithScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default: PORT)")
	apiCmd.Flags().BoolVar(&apiWithScheduler, "with-scheduler", false, "랭킹 갱신 스케줄러 함께 실행")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	a.log.WithFields(map[string]interface{}{
		"port":     a.cfg.Port,
		"env":      a.cfg.Env,
		"strategy": a.strategy.Meta.StrategyID,
	}).Info("Initializing API server")

	// API requests never write report files; runs are recorded when a database is set
	o, err := a.orchestrator("", report.Discard, a.recorder())
	if err != nil {
		return err
	}
	cache := a.rankingCache()

	var history handlers.RunHistory
	if repo := a.history(); repo != nil {
		history = repo
	}

	h := api.Handlers{
		Momentum: handlers.NewMomentumHandler(o, cache, a.strategy.Selection.TopN, a.log),
		History:  handlers.NewHistoryHandler(history, a.log),
		Health:   handlers.NewHealthHandler("hqm-api", a.pingers()),
	}
	if a.cfg.MetricsEnabled {
		h.Metrics = a.metrics.Handler()
	}

	if apiWithScheduler {
		sched, err := newRefreshScheduler(a, o, cache)
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	server := api.New(a.cfg, a.log, api.NewRouter(h, a.log))

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	PrintInfo(out, "Press Ctrl+C to stop")

	if err := server.Run(ctx); err != nil {
		return err
	}

	a.log.Info("Server stopped")
	return nil
}

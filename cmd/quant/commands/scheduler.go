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
	"github.com/wonny/hqm/backend/internal/scheduler"
	"github.com/wonny/hqm/backend/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `랭킹 갱신 스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업과 다음 실행 시각
  run     - 특정 작업 즉시 실행

Example:
  go run ./cmd/quant scheduler start
  go run ./cmd/quant scheduler list
  go run ./cmd/quant scheduler run ranking_refresh`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- ranking_refresh: meta.refresh_cron (기본 평일 17:30, meta.timezone 기준)
  두 전략의 랭킹을 계산해 Redis 캐시에 저장하고 실행 이력을 기록합니다.

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if !a.rdb.Enabled() {
		a.log.Warn("REDIS_ENABLED is false: refreshed rankings are recorded but not cached")
	}

	o, err := a.orchestrator("", report.Discard, a.recorder())
	if err != nil {
		return err
	}

	sched, err := newRefreshScheduler(a, o, a.rankingCache())
	if err != nil {
		return err
	}

	sched.Start()

	out := cmd.OutOrStdout()
	PrintSuccess(out, "Scheduler started successfully")
	printJobs(out, sched)
	PrintInfo(out, "Press Ctrl+C to stop")

	<-ctx.Done()

	sched.Stop()
	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	// listing never runs a job, so no provider is built
	sched, err := newRefreshScheduler(a, nil, nil)
	if err != nil {
		return err
	}

	printJobs(cmd.OutOrStdout(), sched)
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	o, err := a.orchestrator("", report.Discard, a.recorder())
	if err != nil {
		return err
	}

	sched, err := newRefreshScheduler(a, o, a.rankingCache())
	if err != nil {
		return err
	}

	result, err := sched.RunJob(ctx, args[0])
	if err != nil {
		return fmt.Errorf("run job %s: %w", args[0], err)
	}

	PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Job %s completed in %s (%d attempt(s))",
		result.JobName, result.Duration.Round(time.Millisecond), result.Attempts))
	return nil
}

// newRefreshScheduler registers the ranking refresh job in the strategy timezone
func newRefreshScheduler(a *app, runner jobs.Runner, cache *brain.RankingCache) (*scheduler.Scheduler, error) {
	loc, err := time.LoadLocation(a.strategy.Meta.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", a.strategy.Meta.Timezone, err)
	}

	cfg := scheduler.DefaultConfig()
	cfg.Location = loc
	sched := scheduler.New(cfg, a.log)

	job := jobs.NewRankingRefreshJob(
		runner,
		cache,
		[]contracts.Strategy{contracts.StrategyPriceReturn, contracts.StrategyHQM},
		a.strategy.Selection.TopN,
		a.strategy.Meta.RefreshCron,
		a.log,
	)
	if err := sched.AddJob(job); err != nil {
		return nil, err
	}

	return sched, nil
}

func printJobs(out io.Writer, sched *scheduler.Scheduler) {
	widths := []int{18, 18, 25}
	PrintTableHeader(out, []string{"Job", "Schedule", "Next run"}, widths)

	stats := sched.GetJobStats()
	for _, name := range sched.GetAllJobs() {
		next := "-"
		if n, ok := sched.NextRun(name); ok && !n.IsZero() {
			next = n.Format("2006-01-02 15:04:05 MST")
		}
		PrintTableRow(out, []string{name, stats[name].Schedule, next}, widths)
	}
}

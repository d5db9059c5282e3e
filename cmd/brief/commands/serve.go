package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/dailybrief/internal/api"
	"github.com/wonny/dailybrief/internal/api/handlers"
	"github.com/wonny/dailybrief/internal/brain"
	"github.com/wonny/dailybrief/internal/scheduler"
	"github.com/wonny/dailybrief/internal/scheduler/jobs"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "API 서버 + 일일 스케줄러 시작",
	Long: `HTTP API 와 일일 스케줄러를 시작합니다.

Endpoints:
  GET  /health           - Health check
  GET  /metrics          - Prometheus metrics
  POST /api/runs         - 파이프라인 실행 트리거
  GET  /api/runs/latest  - 마지막 실행 결과
  POST /api/validate     - 모델 출력 검증
  GET  /ws/runs          - 단계별 이벤트 스트림 (websocket)

Example:
  go run ./cmd/brief serve
  go run ./cmd/brief serve --port 8090 --no-schedule`,
	RunE: runServe,
}

var (
	servePort       string
	serveNoSchedule bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "API 서버 포트 (기본: $PORT)")
	serveCmd.Flags().BoolVar(&serveNoSchedule, "no-schedule", false, "스케줄러 비활성화")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// hub 은 app 의 logger 로 만들고, 이벤트는 run 시작 후에만 발생
	var hub *handlers.EventHub
	a, err := newApp(ctx, appOptions{
		withModel: true,
		observer:  func(ev brain.StageEvent) { hub.Publish(ev) },
	})
	if err != nil {
		return err
	}
	defer a.close()
	hub = handlers.NewEventHub(a.log)

	if servePort != "" {
		a.cfg.Port = servePort
	}

	runs := handlers.NewRunsHandler(ctx, a.orchestrator, a.newRunConfig, a.log)

	// Scheduler
	sched := scheduler.New(a.log,
		scheduler.WithRetry(1, 5*time.Minute),
		scheduler.WithJobTimeout(30*time.Minute),
	)
	if !serveNoSchedule {
		job := jobs.NewBriefJob(a.orchestrator, a.newRunConfig, a.cfg.BriefSchedule, runs.Record, a.log)
		if err := sched.AddJob(job); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	// Router
	routes := api.Routes{
		Runs:   runs,
		Events: hub,
		Health: func(ctx context.Context) map[string]interface{} {
			out := map[string]interface{}{
				"quote_providers": a.fetcher.Providers(),
				"jobs":            sched.GetJobStats(),
			}
			if a.db != nil {
				out["database"] = a.db.HealthCheck(ctx)
			}
			return out
		},
	}
	if a.cfg.MetricsEnabled {
		routes.Gatherer = a.registry
	}
	server := api.New(a.cfg, a.log, api.NewRouter(routes, a.log))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	if !serveNoSchedule {
		if next, ok := sched.NextRun("daily_brief"); ok {
			fmt.Printf("   Next brief: %s\n", next.Format(time.RFC1123))
		}
	}
	fmt.Println("\nPress Ctrl+C to stop")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info("Shutting down server...")
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}

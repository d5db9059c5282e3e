package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "파이프라인 1회 실행",
	Long: `8단계 파이프라인을 한 번 실행하고 결과를 출력합니다.

Example:
  go run ./cmd/brief run
  go run ./cmd/brief run --dry-run --groups tech,growth --count 5
  go run ./cmd/brief run --symbols AAPL,MSFT,NVDA`,
	RunE: runPipeline,
}

var (
	runDate    string
	runSymbols []string
	runGroups  []string
	runCount   int
	runDryRun  bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runDate, "date", "", "실행 날짜 (YYYY-MM-DD, 기본: 오늘)")
	runCmd.Flags().StringSliceVar(&runSymbols, "symbols", nil, "discovery 대신 사용할 종목")
	runCmd.Flags().StringSliceVar(&runGroups, "groups", nil, "포커스 그룹 (기본: 설정값)")
	runCmd.Flags().IntVar(&runCount, "count", 0, "후보 종목 수 (1-40, 기본: 설정값)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "publish 생략")
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: %w", err)
	}
	return d, nil
}

func runPipeline(cmd *cobra.Command, args []string) error {
	date, err := parseDate(runDate)
	if err != nil {
		return err
	}
	if runCount < 0 || runCount > 40 {
		return fmt.Errorf("--count must be between 1 and 40")
	}

	a, err := newApp(cmd.Context(), appOptions{withModel: true})
	if err != nil {
		return err
	}
	defer a.close()

	cfg := a.newRunConfig(date)
	cfg.Symbols = runSymbols
	cfg.DryRun = runDryRun
	if runCount > 0 {
		cfg.Discovery.Count = runCount
	}
	if len(runGroups) > 0 {
		cfg.Discovery.FocusGroups = runGroups
	}

	if !jsonOutput {
		fmt.Printf("🚀 Starting pipeline run: %s\n", cfg.RunID)
		if len(cfg.Symbols) > 0 {
			fmt.Printf("   Symbols: %s\n", strings.Join(cfg.Symbols, ", "))
		}
	}

	result, runErr := a.orchestrator.Run(cmd.Context(), cfg)
	if jsonOutput {
		if err := printJSON(result); err != nil {
			return err
		}
	} else {
		printRunResult(result)
	}

	if runErr != nil {
		return fmt.Errorf("pipeline run failed: %w", runErr)
	}
	return nil
}

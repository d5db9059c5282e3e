package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	briefConfigPath string
	verbose         bool
	jsonOutput      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "brief",
	Short: "Daily stock newsletter pipeline",
	Long: `Daily Brief CLI

매일 아침 뉴스레터용 종목을 선정하고, 데이터를 모아 분석 후 검증된 추천만 발행합니다.

discovery → context → gather → aggregation → analysis → validation → postprocess → publish

Examples:
  go run ./cmd/brief run --dry-run
  go run ./cmd/brief run --symbols AAPL,MSFT
  go run ./cmd/brief discover --groups tech,growth
  go run ./cmd/brief quotes NVDA AMD
  go run ./cmd/brief validate output.json --symbol NVDA
  go run ./cmd/brief serve`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&briefConfigPath, "brief-config", "", "pipeline YAML (default: $BRIEF_CONFIG or built-in defaults)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
}

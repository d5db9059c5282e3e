package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/wonny/dailybrief/internal/s0_quotes"
)

var quotesCmd = &cobra.Command{
	Use:   "quotes SYMBOL...",
	Short: "시세 조회 (provider fallback 포함)",
	Long: `설정된 provider 순서대로 시세를 조회합니다. 미해결 종목이 있으면 종료 코드 1.

Example:
  go run ./cmd/brief quotes AAPL MSFT NVDA`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuotes,
}

func init() {
	rootCmd.AddCommand(quotesCmd)
}

func runQuotes(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), appOptions{})
	if err != nil {
		return err
	}
	defer a.close()

	res, fetchErr := a.fetcher.Fetch(cmd.Context(), args)
	if fetchErr != nil && !errors.Is(fetchErr, s0_quotes.ErrUnresolved) {
		return fetchErr
	}

	if jsonOutput {
		if err := printJSON(res); err != nil {
			return err
		}
	} else {
		printQuotes(res)
	}
	return fetchErr
}

package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/wonny/dailybrief/internal/brain"
	"github.com/wonny/dailybrief/internal/contracts"
	"github.com/wonny/dailybrief/internal/s0_quotes"
	"github.com/wonny/dailybrief/internal/s1_discovery"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const (
	heavyRule = "═══════════════════════════════════════════════════════════"
	lightRule = "───────────────────────────────────────────────────────────"
)

// printHeader prints a boxed section title
func printHeader(title string) {
	fmt.Println()
	fmt.Println(heavyRule)
	fmt.Printf("  %s\n", title)
	fmt.Println(lightRule)
}

// printJSON writes v as indented JSON to stdout
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func statusIcon(s contracts.StageStatus) string {
	switch s {
	case contracts.StatusCompleted:
		return "✅"
	case contracts.StatusPartial:
		return "⚠️ "
	case contracts.StatusFailed:
		return "❌"
	default:
		return "⏭️ "
	}
}

func printRunResult(result *brain.RunResult) {
	if result.Success {
		printHeader("✅ Pipeline Run Completed")
	} else {
		printHeader("❌ Pipeline Run Failed")
	}

	fmt.Printf("  Run ID    : %s\n", result.RunID)
	fmt.Printf("  Date      : %s\n", result.Date.Format("2006-01-02"))
	fmt.Printf("  Duration  : %.2fs\n", result.Duration.Seconds())
	if result.Reason != "" {
		fmt.Printf("  Reason    : %s\n", result.Reason)
	}
	fmt.Println(lightRule)

	for _, stage := range contracts.AllStages() {
		line := fmt.Sprintf("  %s %-12s %s", statusIcon(result.Status[stage]), stage, result.Status[stage])
		if failed := result.Failures[stage]; len(failed) > 0 {
			line += fmt.Sprintf("  (failed: %s)", strings.Join(failed, ", "))
		}
		fmt.Println(line)
	}
	if len(result.Retried) > 0 {
		fmt.Printf("  Retried   : %s\n", strings.Join(result.Retried, ", "))
	}

	if len(result.Records) == 0 {
		return
	}
	fmt.Println(lightRule)
	for _, rec := range result.Records {
		r := rec.Recommendation
		quality := "-"
		if rec.Quality != nil {
			quality = fmt.Sprintf("%d", rec.Quality.OverallScore)
		}
		fmt.Printf("  %-6s %-5s conf %3.0f  risk %-6s  quality %3s  $%.2f\n",
			r.Symbol, r.Action, r.Confidence, r.RiskLevel, quality, r.Price)
	}
}

func printDiscovery(res *s1_discovery.Result) {
	printHeader("Discovery")
	if res.Fallback {
		fmt.Println("  ⚠️  fallback symbols used")
	}
	for i, s := range res.Scores {
		fmt.Printf("  %2d. %-6s total %5.1f  (momentum %4.1f  sentiment %4.1f  buzz %4.1f  random %4.1f)\n",
			i+1, s.Symbol, s.Total, s.MomentumScore, s.SentimentScore, s.BuzzScore, s.RandomScore)
	}
	if len(res.Backfilled) > 0 {
		fmt.Printf("  Backfilled: %s\n", strings.Join(res.Backfilled, ", "))
	}
	if len(res.Excluded) > 0 {
		fmt.Printf("  Excluded  : %s\n", strings.Join(res.Excluded, ", "))
	}
	fmt.Printf("  Symbols   : %s\n", strings.Join(res.Symbols, ", "))
}

func printQuotes(res *s0_quotes.FetchResult) {
	printHeader("Quotes")
	for _, q := range res.Quotes {
		fmt.Printf("  %-6s $%10.2f  %+6.2f%%  vol %12d  [%s]\n",
			q.Symbol, q.Price, q.ChangePercent, q.Volume, q.Source)
	}
	fmt.Println(lightRule)
	fmt.Printf("  Resolved  : %d/%d (%.0f%%)  sources: %s\n",
		res.Quality.Successful, res.Quality.Total, res.Quality.SuccessRate*100, strings.Join(res.Quality.SourcesUsed, ", "))
	if len(res.Quality.FailedSymbols) > 0 {
		fmt.Printf("  Failed    : %s\n", strings.Join(res.Quality.FailedSymbols, ", "))
	}
}

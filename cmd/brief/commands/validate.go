package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/dailybrief/internal/contracts"
	"github.com/wonny/dailybrief/internal/s3_analysis"
	"github.com/wonny/dailybrief/internal/s4_validation"
)

var validateCmd = &cobra.Command{
	Use:   "validate [FILE|-]",
	Short: "모델 출력 검증",
	Long: `모델 출력(JSON, 코드펜스 허용)을 Output Validator 로 검사합니다.
파일을 지정하지 않거나 "-" 이면 stdin 에서 읽습니다.

Example:
  go run ./cmd/brief validate output.json --symbol NVDA
  cat output.json | go run ./cmd/brief validate`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

var validateSymbol string

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateSymbol, "symbol", "", "기대 종목 (불일치 시 거부)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	var r io.Reader = os.Stdin
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	rec, reason := s4_validation.ValidateJSON(s3_analysis.ExtractJSON(string(data)))
	if rec != nil && validateSymbol != "" {
		if want := contracts.NormalizeSymbol(validateSymbol); rec.Symbol() != want {
			rec, reason = nil, fmt.Sprintf("symbol mismatch: got %s, want %s", rec.Symbol(), want)
		}
	}

	if jsonOutput {
		if err := printJSON(map[string]interface{}{"valid": rec != nil, "reason": reason, "record": rec}); err != nil {
			return err
		}
	} else if rec != nil {
		r := rec.Recommendation
		fmt.Printf("✅ valid: %s %s (confidence %.0f, risk %s)\n", r.Symbol, r.Action, r.Confidence, r.RiskLevel)
	} else {
		fmt.Printf("❌ rejected: %s\n", reason)
	}

	if rec == nil {
		return fmt.Errorf("rejected: %s", reason)
	}
	return nil
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/dailybrief/internal/s1_discovery"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "후보 종목 선정만 실행",
	Long: `Discovery 단계만 실행해 후보 점수를 출력합니다. 모델 호출과 발행은 하지 않습니다.

Example:
  go run ./cmd/brief discover
  go run ./cmd/brief discover --groups energy --count 5`,
	RunE: runDiscover,
}

var (
	discoverGroups []string
	discoverCount  int
)

func init() {
	rootCmd.AddCommand(discoverCmd)

	discoverCmd.Flags().StringSliceVar(&discoverGroups, "groups", nil, "포커스 그룹 (기본: 설정값)")
	discoverCmd.Flags().IntVar(&discoverCount, "count", 0, "후보 종목 수 (1-40, 기본: 설정값)")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	if discoverCount < 0 || discoverCount > 40 {
		return fmt.Errorf("--count must be between 1 and 40")
	}

	a, err := newApp(cmd.Context(), appOptions{})
	if err != nil {
		return err
	}
	defer a.close()

	req := s1_discovery.RequestFromConfig(a.brief.Discovery)
	if discoverCount > 0 {
		req.Count = discoverCount
	}
	if len(discoverGroups) > 0 {
		req.FocusGroups = discoverGroups
	}

	res := a.discoverer.Discover(cmd.Context(), req)
	if jsonOutput {
		return printJSON(res)
	}
	printDiscovery(res)
	return nil
}

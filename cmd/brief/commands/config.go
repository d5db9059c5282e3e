package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wonny/dailybrief/internal/briefconfig"
	"github.com/wonny/dailybrief/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "적용될 파이프라인 설정 출력",
	Long: `기본값과 YAML 을 합친 최종 파이프라인 설정과 해시를 출력합니다.

Example:
  go run ./cmd/brief config --brief-config config/brief.yaml`,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	path := briefConfigPath
	if path == "" {
		env, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		path = env.BriefConfigPath
	}

	cfg, err := briefconfig.Load(path)
	if err != nil {
		return err
	}
	hash, err := briefconfig.Hash(cfg)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(map[string]interface{}{"hash": hash, "config": cfg})
	}

	fmt.Printf("# config hash: %s\n", hash)
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(cfg)
}

package briefconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

// Default returns a fully populated config with the built-in universes
func Default() *Config {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		// struct tag 오류는 프로그래밍 실수
		panic(fmt.Sprintf("briefconfig defaults: %v", err))
	}
	cfg.Universes = defaultUniverses()
	return cfg
}

// Load reads a YAML file over the defaults and validates the result.
// An empty path returns Default().
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read brief config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML bytes over the defaults
// SSOT 핵심: KnownFields(true)로 오타/미사용 필드 즉시 실패
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode brief config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Hash generates SHA256 hash from Config (canonical JSON)
// 실행 결과에 기록해 어떤 설정으로 생성된 브리프인지 추적
func Hash(cfg *Config) (string, error) {
	jsonBytes, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}

// MustHash is Hash for configs already loaded by Load or Default; it panics on error
func MustHash(cfg *Config) string {
	hash, err := Hash(cfg)
	if err != nil {
		panic(fmt.Sprintf("briefconfig: hash config: %v", err))
	}
	return hash
}

func defaultUniverses() map[string][]string {
	return map[string][]string{
		"tech":       {"AAPL", "MSFT", "NVDA", "GOOGL", "META", "AMZN", "AMD", "AVGO", "ORCL", "CRM", "ADBE", "INTC"},
		"growth":     {"TSLA", "SHOP", "SNOW", "PLTR", "CRWD", "NET", "DDOG", "MDB", "UBER", "ABNB"},
		"value":      {"BAC", "C", "F", "GM", "PFE", "VZ", "T", "KHC", "INTC", "MO"},
		"dividend":   {"JNJ", "PG", "KO", "PEP", "MO", "ABBV", "XOM", "CVX", "VZ", "O"},
		"healthcare": {"UNH", "JNJ", "LLY", "PFE", "ABBV", "MRK", "TMO", "ISRG", "AMGN", "GILD"},
		"energy":     {"XOM", "CVX", "COP", "SLB", "EOG", "OXY", "PSX", "MPC"},
		"financials": {"JPM", "BAC", "WFC", "GS", "MS", "C", "SCHW", "BLK", "AXP", "V", "MA"},
		"consumer":   {"AMZN", "WMT", "COST", "HD", "NKE", "MCD", "SBUX", "TGT", "LOW"},
		"momentum":   {"NVDA", "SMCI", "PLTR", "TSLA", "META", "AVGO", "COIN", "MSTR", "ARM"},
	}
}

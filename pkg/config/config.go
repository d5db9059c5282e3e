package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database (optional: empty URL → in-memory store)
	Database DatabaseConfig

	// External APIs
	Finnhub FinnhubConfig
	Yahoo   YahooConfig
	Reddit  RedditConfig
	Finviz  FinvizConfig
	LLM     LLMConfig

	// Pipeline
	BriefConfigPath string        // pipeline YAML (empty → built-in defaults)
	BriefSchedule   string        // cron expression with seconds field
	ProviderTimeout time.Duration // per-call timeout for market data providers

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether a database URL is configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// FinnhubConfig holds Finnhub REST API configuration
type FinnhubConfig struct {
	APIKey            string
	BaseURL           string
	RequestsPerSecond float64
}

// YahooConfig holds Yahoo Finance configuration
type YahooConfig struct {
	Enabled bool
}

// RedditConfig holds Reddit public JSON API configuration
type RedditConfig struct {
	BaseURL    string
	UserAgent  string
	Subreddits []string
}

// FinvizConfig holds Finviz quote page scraping configuration
type FinvizConfig struct {
	BaseURL string
	Enabled bool
}

// LLMConfig holds generative model configuration
type LLMConfig struct {
	Provider        string // claude, gemini
	AnthropicAPIKey string
	ClaudeModel     string
	GeminiAPIKey    string
	GeminiModel     string
	Timeout         time.Duration
	MaxTokens       int
	Temperature     float64
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// External APIs
		Finnhub: FinnhubConfig{
			APIKey:            getEnv("FINNHUB_API_KEY", ""),
			BaseURL:           getEnv("FINNHUB_BASE_URL", "https://finnhub.io/api/v1"),
			RequestsPerSecond: getEnvAsFloat("FINNHUB_RPS", 1),
		},

		Yahoo: YahooConfig{
			Enabled: getEnvAsBool("YAHOO_ENABLED", true),
		},

		Reddit: RedditConfig{
			BaseURL:    getEnv("REDDIT_BASE_URL", "https://www.reddit.com"),
			UserAgent:  getEnv("REDDIT_USER_AGENT", "dailybrief/1.0"),
			Subreddits: getEnvAsList("REDDIT_SUBREDDITS", []string{"stocks", "wallstreetbets", "investing"}),
		},

		Finviz: FinvizConfig{
			BaseURL: getEnv("FINVIZ_BASE_URL", "https://finviz.com"),
			Enabled: getEnvAsBool("FINVIZ_ENABLED", true),
		},

		LLM: LLMConfig{
			Provider:        getEnv("LLM_PROVIDER", "claude"),
			AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
			ClaudeModel:     getEnv("CLAUDE_MODEL", "claude-sonnet-4-20250514"),
			GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
			GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			Timeout:         getEnvAsDuration("LLM_TIMEOUT", "90s"),
			MaxTokens:       getEnvAsInt("LLM_MAX_TOKENS", 2048),
			Temperature:     getEnvAsFloat("LLM_TEMPERATURE", 0.3),
		},

		// Pipeline
		BriefConfigPath: getEnv("BRIEF_CONFIG", ""),
		BriefSchedule:   getEnv("BRIEF_SCHEDULE", "0 30 6 * * 1-5"),
		ProviderTimeout: getEnvAsDuration("PROVIDER_TIMEOUT", "10s"),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.LLM.Provider != "claude" && c.LLM.Provider != "gemini" {
		return fmt.Errorf("LLM_PROVIDER must be one of: claude, gemini")
	}

	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT must be positive")
	}

	// production 에서는 모델 키 필수
	if c.Env == "production" {
		if c.LLM.Provider == "claude" && c.LLM.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required in production")
		}
		if c.LLM.Provider == "gemini" && c.LLM.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required in production")
		}
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

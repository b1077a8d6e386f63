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
// ⭐ SSOT: 所有环境变量只在这里读取
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Paths (flat-file store, keyed by path)
	DataDir    string // acquired CSV datasets, per stock code
	OutputDir  string // stage artifacts (reasoning + answer markdown)
	ResultsDir string // backtest records and summaries

	// External services
	Ark       ArkConfig
	Eastmoney EastmoneyConfig

	// Redis (rate limiting for acquisition)
	Redis RedisConfig

	// Scheduler
	StockCodes      []string // codes refreshed by the daily job
	RefreshSchedule string   // cron spec

	// Logging
	LogLevel  string
	LogFormat string
}

// ArkConfig holds the Volcengine Ark (DeepSeek-R1 endpoint) configuration.
// Deep-reasoning completions run for a long time, so the timeout is measured
// in tens of minutes.
type ArkConfig struct {
	APIKey  string
	BaseURL string
	Model   string // custom inference endpoint id
	Timeout time.Duration
}

// EastmoneyConfig holds the Eastmoney data API configuration
type EastmoneyConfig struct {
	KlineBaseURL  string
	SearchBaseURL string
	F10BaseURL    string
	MaxAgeDays    int // cached file freshness window
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// Load reads configuration from environment variables
// ⭐ SSOT: 只有这个函数调用 os.Getenv()
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		DataDir:    getEnv("DATA_DIR", "data"),
		OutputDir:  getEnv("OUTPUT_DIR", "suggestions"),
		ResultsDir: getEnv("RESULTS_DIR", "results"),

		Ark: ArkConfig{
			APIKey:  getEnv("ARK_API_KEY", ""),
			BaseURL: getEnv("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
			Model:   getEnv("ARK_MODEL", "ep-20250218214614-mhts7"),
			Timeout: getEnvAsDuration("ARK_TIMEOUT", "30m"),
		},

		Eastmoney: EastmoneyConfig{
			KlineBaseURL:  getEnv("EM_KLINE_BASE_URL", "https://push2his.eastmoney.com"),
			SearchBaseURL: getEnv("EM_SEARCH_BASE_URL", "https://search-api-web.eastmoney.com"),
			F10BaseURL:    getEnv("EM_F10_BASE_URL", "https://emweb.securities.eastmoney.com"),
			MaxAgeDays:    getEnvAsInt("EM_MAX_AGE_DAYS", 30),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		StockCodes:      getEnvAsSlice("STOCK_CODES", nil),
		RefreshSchedule: getEnv("REFRESH_SCHEDULE", "0 0 17 * * MON-FRI"),

		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Ark.Timeout < time.Minute {
		return fmt.Errorf("ARK_TIMEOUT must be at least 1m, got %s", c.Ark.Timeout)
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",         // Current directory
		"backend/.env", // From project root
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
			filepath.Join(exeDir, "..", "..", ".env"),
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

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// internal/config/config.go
package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	LogLevel string `mapstructure:"LOG_LEVEL"`
	DBURL    string `mapstructure:"DB_URL"`
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// AppURL is the public base URL, used for RSS links and guids.
	AppURL string `mapstructure:"APP_URL"`

	// GithubToken is optional; unauthenticated requests work at a lower rate
	// limit.
	GithubToken string `mapstructure:"GITHUB_TOKEN"`
	// TrendingURL is the trending page base, overridable for tests.
	TrendingURL string `mapstructure:"TRENDING_URL"`

	// CronSecret guards the trigger endpoints; empty disables the check.
	CronSecret string `mapstructure:"CRON_SECRET"`
	// AdminPassword guards webhook management; empty disables the check.
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"`

	AnthropicAPIKey  string `mapstructure:"ANTHROPIC_API_KEY"`
	AnthropicBaseURL string `mapstructure:"ANTHROPIC_BASE_URL"`
	AnalysisModel    string `mapstructure:"ANALYSIS_MODEL"`
	AnalyzeLimit     int    `mapstructure:"ANALYZE_LIMIT"`

	// Cron schedules; an empty string disables the job.
	CollectSchedule string `mapstructure:"COLLECT_SCHEDULE"`
	AnalyzeSchedule string `mapstructure:"ANALYZE_SCHEDULE"`
}

// LoadConfig reads configuration from file and/or environment variables.
func LoadConfig() (*Config, error) {
	// Set default values
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("HTTP_ADDR", ":8080")
	viper.SetDefault("APP_URL", "http://localhost:8080")
	viper.SetDefault("TRENDING_URL", "https://github.com/trending")
	viper.SetDefault("ANTHROPIC_BASE_URL", "https://api.anthropic.com")
	viper.SetDefault("ANALYSIS_MODEL", "claude-sonnet-4-20250514")
	viper.SetDefault("ANALYZE_LIMIT", 5)
	viper.SetDefault("COLLECT_SCHEDULE", "0 */6 * * *")
	viper.SetDefault("ANALYZE_SCHEDULE", "30 */6 * * *")

	// Load from .env file if it exists
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig() // Ignore error if file not found

	// Bind environment variables. Keys without defaults must be bound
	// explicitly or Unmarshal will not see them.
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for _, key := range []string{"DB_URL", "GITHUB_TOKEN", "CRON_SECRET", "ADMIN_PASSWORD", "ANTHROPIC_API_KEY"} {
		_ = viper.BindEnv(key)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.DBURL == "" {
		return nil, errors.New("DB_URL is a required configuration field")
	}
	if cfg.AnalyzeLimit <= 0 {
		return nil, errors.New("ANALYZE_LIMIT must be a positive integer")
	}

	return &cfg, nil
}

// internal/config/config_test.go
package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("applies defaults and reads the environment", func(t *testing.T) {
		viper.Reset()
		t.Setenv("DB_URL", "postgres://localhost:5432/trending")
		t.Setenv("CRON_SECRET", "s3cret")

		cfg, err := LoadConfig()

		require.NoError(t, err)
		assert.Equal(t, "postgres://localhost:5432/trending", cfg.DBURL)
		assert.Equal(t, "s3cret", cfg.CronSecret)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, ":8080", cfg.HTTPAddr)
		assert.Equal(t, "https://github.com/trending", cfg.TrendingURL)
		assert.Equal(t, 5, cfg.AnalyzeLimit)
		assert.Equal(t, "0 */6 * * *", cfg.CollectSchedule)
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		viper.Reset()
		t.Setenv("DB_URL", "postgres://localhost:5432/trending")
		t.Setenv("ANALYZE_LIMIT", "12")
		t.Setenv("TRENDING_URL", "http://127.0.0.1:9999/trending")

		cfg, err := LoadConfig()

		require.NoError(t, err)
		assert.Equal(t, 12, cfg.AnalyzeLimit)
		assert.Equal(t, "http://127.0.0.1:9999/trending", cfg.TrendingURL)
	})

	t.Run("a missing DB_URL is rejected", func(t *testing.T) {
		viper.Reset()

		_, err := LoadConfig()

		assert.Error(t, err)
	})

	t.Run("a non-positive ANALYZE_LIMIT is rejected", func(t *testing.T) {
		viper.Reset()
		t.Setenv("DB_URL", "postgres://localhost:5432/trending")
		t.Setenv("ANALYZE_LIMIT", "0")

		_, err := LoadConfig()

		assert.Error(t, err)
	})
}

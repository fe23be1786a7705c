package config_test

import (
	"testing"
	"time"

	"github.com/UnknownOlympus/talentfit/internal/config"
	"github.com/stretchr/testify/assert"
)

func Test_MustLoadFromEnv(t *testing.T) {
	t.Setenv("TALENTFIT_ENV", "local")
	t.Setenv("TALENTFIT_TELEGRAM_TOKEN", "someTelegramToken")
	t.Setenv("DB_HOST", "testHost")
	t.Setenv("DB_PORT", "12345")
	t.Setenv("DB_USERNAME", "admin")
	t.Setenv("DB_PASSWORD", "adminpass")
	t.Setenv("DB_NAME", "testName")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("TALENTFIT_API_MODE", "development")
	t.Setenv("TALENTFIT_API_URL_DEV", "http://backend:9000")
	t.Setenv("TALENTFIT_WEBHOOK_SECRET", "s3cret")

	cfg := config.MustLoad()

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "someTelegramToken", cfg.Token)
	assert.Equal(t, 10*time.Second, cfg.PollerTimeout)
	assert.Equal(t, "testHost", cfg.Database.Host)
	assert.Equal(t, "12345", cfg.Database.Port)
	assert.Equal(t, "admin", cfg.Database.User)
	assert.Equal(t, "adminpass", cfg.Database.Password)
	assert.Equal(t, "testName", cfg.Database.Name)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 720*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 5*time.Minute, cfg.API.Timeout)
	assert.Equal(t, "http://backend:9000", cfg.API.BaseURL())
	assert.Equal(t, 8080, cfg.MonitoringPort)
	assert.Equal(t, "s3cret", cfg.WebhookSecret)
}

func TestMustLoad_IntervalError(t *testing.T) {
	t.Setenv("TALENTFIT_TELEGRAM_TIMEOUT", "error_value")

	assert.PanicsWithValue(t, "failed to parse interval from configuration", func() {
		config.MustLoad()
	})
}

func TestMustLoad_APITimeoutError(t *testing.T) {
	t.Setenv("TALENTFIT_API_TIMEOUT", "soon")

	assert.PanicsWithValue(t, "failed to parse api timeout from configuration", func() {
		config.MustLoad()
	})
}

func TestMustLoad_PortError(t *testing.T) {
	t.Setenv("TALENTFIT_MONITORING_PORT", "http")

	assert.PanicsWithValue(t, "failed to parse monitoring port from configuration", func() {
		config.MustLoad()
	})
}

func TestAPIConfig_BaseURL(t *testing.T) {
	t.Parallel()

	api := config.APIConfig{ProdURL: "https://prod", DevURL: "http://dev"}

	assert.Equal(t, "https://prod", api.BaseURL())
	api.Mode = config.APIModeDevelopment
	assert.Equal(t, "http://dev", api.BaseURL())
	api.Mode = "staging"
	assert.Equal(t, "https://prod", api.BaseURL())
}

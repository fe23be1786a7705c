// Package config loads the application configuration from a YAML file.
package config

import (
	"os"
	"time"

	appconfig "github.com/UnknownOlympus/talentfit/internal/config"
	"github.com/spf13/viper"
)

// Config is the same settings structure the environment loader produces.
type Config = appconfig.Config

const (
	defPollerTimeout  = 10 * time.Second
	defAPITimeout     = 5 * time.Minute
	defSessionTTL     = 720 * time.Hour
	defMonitoringPort = 8080
)

// MustLoad loads the configuration from the YAML file named by CONFIG_PATH and returns a Config struct.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		panic("config path is empty")
	}

	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		panic("config error: " + err.Error())
	}

	v.SetDefault("postgres.port", "5432")
	v.SetDefault("telegram.timeout", defPollerTimeout)
	v.SetDefault("api.mode", appconfig.APIModeProduction)
	v.SetDefault("api.prod_url", "https://talent-fit-backend.onrender.com")
	v.SetDefault("api.dev_url", "http://localhost:8080")
	v.SetDefault("api.timeout", defAPITimeout)
	v.SetDefault("redis.session_ttl", defSessionTTL)
	v.SetDefault("monitoring.port", defMonitoringPort)

	return &Config{
		Env:           v.GetString("env"),
		Token:         v.GetString("telegram.token"),
		PollerTimeout: v.GetDuration("telegram.timeout"),
		Database: appconfig.PostgresConfig{
			Host:     v.GetString("postgres.host"),
			Port:     v.GetString("postgres.port"),
			User:     v.GetString("postgres.user"),
			Password: v.GetString("postgres.password"),
			Name:     v.GetString("postgres.db_name"),
		},
		RedisAddr:  v.GetString("redis.addr"),
		SessionTTL: v.GetDuration("redis.session_ttl"),
		API: appconfig.APIConfig{
			Mode:    v.GetString("api.mode"),
			ProdURL: v.GetString("api.prod_url"),
			DevURL:  v.GetString("api.dev_url"),
			Timeout: v.GetDuration("api.timeout"),
		},
		MonitoringPort: v.GetInt("monitoring.port"),
		WebhookSecret:  v.GetString("webhook.secret"),
	}
}

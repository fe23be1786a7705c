package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// API modes selecting the backend base URL.
const (
	APIModeProduction  = "production"
	APIModeDevelopment = "development"
)

// Config holds the configuration settings for the application.
// It includes the environment type, database and redis configuration,
// the telegram token with its poller timeout, and the backend API settings.
type Config struct {
	Env            string         `yaml:"env"`             // Env is the current environment: local, dev, prod.
	Database       PostgresConfig `yaml:"postgres"`        // Database holds the postgres database configuration
	Token          string         `yaml:"token"`           // Token is an unique telgram bot token
	PollerTimeout  time.Duration  `yaml:"poller_timeout"`  // PollerTimeout its a time which need to close telegram bot poller
	RedisAddr      string         `yaml:"redis_addr"`      // RedisAddr is the redis server address.
	SessionTTL     time.Duration  `yaml:"session_ttl"`     // SessionTTL is how long an idle session is kept in redis.
	API            APIConfig      `yaml:"api"`             // API holds the Talent Fit backend settings.
	MonitoringPort int            `yaml:"monitoring_port"` // MonitoringPort serves /healthz, /metrics and the webhook.
	WebhookSecret  string         `yaml:"webhook_secret"`  // WebhookSecret must be sent by the backend with every notification.
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string `yaml:"host"`     // Host is the database server address.
	Port     string `yaml:"port"`     // Port is the database server port.
	User     string `yaml:"user"`     // User is the database user.
	Password string `yaml:"password"` // Password is the database user's password.
	Name     string `yaml:"db_name"`  // Name is the name of the database.
}

// APIConfig holds the Talent Fit backend location.
type APIConfig struct {
	Mode    string        `yaml:"mode"`     // Mode is production or development.
	ProdURL string        `yaml:"prod_url"` // ProdURL is the backend used in production mode.
	DevURL  string        `yaml:"dev_url"`  // DevURL is the backend used in development mode.
	Timeout time.Duration `yaml:"timeout"`  // Timeout applies to every backend request.
}

// BaseURL returns the backend URL of the configured mode. Unknown modes use production.
func (a APIConfig) BaseURL() string {
	if a.Mode == APIModeDevelopment {
		return a.DevURL
	}
	return a.ProdURL
}

// MustLoad loads the configuration from the environment, reading a .env file first if present.
func MustLoad() *Config {
	_ = godotenv.Load()

	timeout, err := time.ParseDuration(setDeafultEnv("TALENTFIT_TELEGRAM_TIMEOUT", "10s"))
	if err != nil {
		panic("failed to parse interval from configuration")
	}
	apiTimeout, err := time.ParseDuration(setDeafultEnv("TALENTFIT_API_TIMEOUT", "5m"))
	if err != nil {
		panic("failed to parse api timeout from configuration")
	}
	sessionTTL, err := time.ParseDuration(setDeafultEnv("TALENTFIT_SESSION_TTL", "720h"))
	if err != nil {
		panic("failed to parse session ttl from configuration")
	}
	port, err := strconv.Atoi(setDeafultEnv("TALENTFIT_MONITORING_PORT", "8080"))
	if err != nil {
		panic("failed to parse monitoring port from configuration")
	}

	return &Config{
		Env:           setDeafultEnv("TALENTFIT_ENV", "production"),
		Token:         os.Getenv("TALENTFIT_TELEGRAM_TOKEN"),
		PollerTimeout: timeout,
		Database: PostgresConfig{
			Host:     os.Getenv("DB_HOST"),
			Port:     setDeafultEnv("DB_PORT", "5432"),
			User:     os.Getenv("DB_USERNAME"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
		},
		RedisAddr:  os.Getenv("REDIS_ADDR"),
		SessionTTL: sessionTTL,
		API: APIConfig{
			Mode:    setDeafultEnv("TALENTFIT_API_MODE", APIModeProduction),
			ProdURL: setDeafultEnv("TALENTFIT_API_URL_PROD", "https://talent-fit-backend.onrender.com"),
			DevURL:  setDeafultEnv("TALENTFIT_API_URL_DEV", "http://localhost:8080"),
			Timeout: apiTimeout,
		},
		MonitoringPort: port,
		WebhookSecret:  os.Getenv("TALENTFIT_WEBHOOK_SECRET"),
	}
}

func setDeafultEnv(key, override string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		value = override
	}

	return value
}

package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	yamlconfig "github.com/UnknownOlympus/talentfit/config"
	"github.com/UnknownOlympus/talentfit/internal/bot"
	"github.com/UnknownOlympus/talentfit/internal/client/talentfit"
	"github.com/UnknownOlympus/talentfit/internal/config"
	"github.com/UnknownOlympus/talentfit/internal/metrics"
	"github.com/UnknownOlympus/talentfit/internal/repository"
	"github.com/UnknownOlympus/talentfit/internal/server"
	"github.com/UnknownOlympus/talentfit/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"

	redisTimeout = 5 * time.Second
)

// main is the entry point of the application.
func main() {
	// Create a context that will be canceled when an interrupt signal is received.
	// This allows for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := loadConfig()
	logger := setupLogger(cfg.Env)

	// Create a separate registry for metrics with exemplar
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	// Initialize the database connection.
	dtb, err := repository.NewDatabase(
		ctx, cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name,
	)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer dtb.Close()
	if err = repository.Migrate(ctx, dtb); err != nil {
		log.Fatalf("Failed to migrate DB: %v", err)
	}

	redisClient, err := newRedisClient(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	backend, err := talentfit.NewClient(
		cfg.API.BaseURL(),
		cfg.API.Timeout,
		talentfit.WithLogger(logger),
		talentfit.WithMetrics(appMetrics),
	)
	if err != nil {
		log.Fatalf("Failed to create backend client: %v", err)
	}

	repo := repository.NewRepository(dtb, repository.WithMetrics(appMetrics))
	store := session.NewStore(
		session.NewRedisStorage(redisClient, cfg.SessionTTL),
		backend,
		logger,
		session.WithMetrics(appMetrics),
	)
	backend.OnUnauthorized(store.HandleUnauthorized)

	if cfg.WebhookSecret == "" {
		logger.Warn("Webhook secret is not set, backend notifications will be refused")
	}
	talentBot, err := bot.NewBot(
		logger, repo, backend, store, redisClient, appMetrics, cfg.Token, cfg.PollerTimeout,
		bot.WithWebhookSecret(cfg.WebhookSecret),
	)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.",
		"backend", cfg.API.BaseURL(), "api_mode", cfg.API.Mode)

	// Start the bot in a goroutine to allow main to listen for signals.
	go talentBot.Start()

	go server.StartMonitoringServer(
		ctx, logger, reg, dtb, backend, cfg.MonitoringPort,
		http.HandlerFunc(talentBot.NotificationsWebhookHandler),
	)

	// Wait for the context to be canceled (e.g., by Ctrl+C).
	<-ctx.Done()

	logger.InfoContext(ctx, "Shutdown signal received. Stopping application...")
	talentBot.Stop()
	logger.InfoContext(ctx, "Application stopped gracefully.")
}

// loadConfig reads the YAML file named by CONFIG_PATH when it is set, the environment otherwise.
func loadConfig() *config.Config {
	if os.Getenv("CONFIG_PATH") != "" {
		return yamlconfig.MustLoad()
	}
	return config.MustLoad()
}

func newRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:       slog.LevelWarn,
				ReplaceAttr: dropTime,
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:       slog.LevelError,
				ReplaceAttr: dropTime,
			}),
		)

		log.Error(
			"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return log
}

func dropTime(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		return slog.Attr{}
	}
	return a
}

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	readTimeout     = 5 * time.Second
	writeTimeout    = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

// NewMux routes the monitoring endpoints: /healthz, /metrics and the backend
// notification webhook.
func NewMux(
	log *slog.Logger,
	reg *prometheus.Registry,
	db DBPinger,
	backend Pinger,
	notifications http.Handler,
) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/healthz", NewHealthChecker(log, db, backend))
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("/webhook/notifications", notifications)
	return mux
}

// StartMonitoringServer serves the monitoring endpoints on the given port until ctx is
// cancelled, then shuts the server down gracefully.
//
// Parameters:
// - ctx: A context.Context whose cancellation stops the server.
// - log: A logger for server events and errors.
// - reg: A registry with Prometheus collectors.
// - db: The database checked by /healthz.
// - backend: The Talent Fit backend checked by /healthz.
// - port: The port number on which the server will listen.
// - notifications: The handler receiving backend notifications.
func StartMonitoringServer(
	ctx context.Context,
	log *slog.Logger,
	reg *prometheus.Registry,
	db DBPinger,
	backend Pinger,
	port int,
	notifications http.Handler,
) {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      NewMux(log, reg, db, backend, notifications),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	log.InfoContext(ctx, "Starting monitoring server", "port", port)

	var err error
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		log.InfoContext(ctx, "Monitoring server shutting down.")
		if err = server.Shutdown(shutdownCtx); err != nil {
			log.ErrorContext(ctx, "Monitoring server failed to shutdown", "error", err)
			return
		}
	case err = <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			log.ErrorContext(ctx, "Monitoring server failed", "error", err)
		}
	}
}

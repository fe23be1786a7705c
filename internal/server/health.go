package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// DBPinger checks the database connection.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// Pinger checks the Talent Fit backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

const checkTimeout = 3 * time.Second

// HealthChecker reports the state of the database and the backend as JSON.
type HealthChecker struct {
	db      DBPinger
	backend Pinger
	log     *slog.Logger
}

func NewHealthChecker(log *slog.Logger, db DBPinger, backend Pinger) *HealthChecker {
	return &HealthChecker{
		db:      db,
		backend: backend,
		log:     log,
	}
}

func (h *HealthChecker) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	h.log.DebugContext(req.Context(), "Performing health checks...")

	ctx, cancel := context.WithTimeout(req.Context(), checkTimeout)
	defer cancel()

	var err error
	status := make(map[string]string)
	overallStatus := http.StatusOK

	if err = h.db.Ping(ctx); err != nil {
		status["database"] = "unavailable"
		overallStatus = http.StatusServiceUnavailable
		h.log.WarnContext(ctx, "Health check failed: DB ping", "error", err)
	} else {
		status["database"] = "ok"
	}

	if err = h.backend.Ping(ctx); err != nil {
		status["backend"] = "unreachable"
		overallStatus = http.StatusServiceUnavailable
		h.log.WarnContext(ctx, "Health check failed: Talent Fit backend unreachable", "error", err)
	} else {
		status["backend"] = "ok"
	}

	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(overallStatus)
	if err = json.NewEncoder(writer).Encode(status); err != nil {
		h.log.ErrorContext(req.Context(), "Failed to write health check response", "error", err)
	}

	h.log.DebugContext(req.Context(), "Health checks completed", "status", overallStatus)
}

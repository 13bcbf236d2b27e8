package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/ausproperty/ausproperty/connectors"
	"github.com/redis/go-redis/v9"
)

const (
	healthStatusOK       = "ok"
	healthStatusDegraded = "degraded"
	healthStatusDown     = "down"
)

const checkTimeout = 2 * time.Second

type checkResult struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message"`
}

type healthResponse struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	Uptime      int64  `json:"uptime"`
	Environment string `json:"environment"`
}

type dbPinger interface {
	Ping(ctx context.Context) error
}

// healthMonitor runs the individual dependency checks. Each check catches
// its failure and reports it in the result; none of them retry.
type healthMonitor struct {
	started time.Time
	env     string
	db      dbPinger
	rdb     *redis.Client
	conns   *connectors.Registry
}

func newHealthMonitor(env string, db dbPinger, rdb *redis.Client, conns *connectors.Registry) *healthMonitor {
	if env == "" {
		env = "dev"
	}
	return &healthMonitor{
		started: time.Now(),
		env:     env,
		db:      db,
		rdb:     rdb,
		conns:   conns,
	}
}

func (h *healthMonitor) checkDB(ctx context.Context) checkResult {
	if h.db == nil {
		return checkResult{Healthy: false, Message: "database not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		return checkResult{Healthy: false, Message: err.Error()}
	}
	return checkResult{Healthy: true, Message: "ok"}
}

func (h *healthMonitor) checkRedis(ctx context.Context) checkResult {
	if h.rdb == nil {
		return checkResult{Healthy: false, Message: "redis disabled"}
	}
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	if err := h.rdb.Ping(ctx).Err(); err != nil {
		return checkResult{Healthy: false, Message: err.Error()}
	}
	return checkResult{Healthy: true, Message: "ok"}
}

func (h *healthMonitor) checkConnectors(ctx context.Context) checkResult {
	if h.conns == nil {
		return checkResult{Healthy: false, Message: "no connectors registered"}
	}
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	if err := h.conns.Check(ctx); err != nil {
		return checkResult{Healthy: false, Message: err.Error()}
	}
	return checkResult{Healthy: true, Message: "ok"}
}

// getHealth aggregates the dependency checks: a dead database means down,
// anything else failing means degraded.
func (h *healthMonitor) getHealth(ctx context.Context) healthResponse {
	status := healthStatusOK
	if !h.checkRedis(ctx).Healthy || !h.checkConnectors(ctx).Healthy {
		status = healthStatusDegraded
	}
	if !h.checkDB(ctx).Healthy {
		status = healthStatusDown
	}
	return healthResponse{
		Status:      status,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Uptime:      int64(time.Since(h.started).Seconds()),
		Environment: h.env,
	}
}

func handleHealth(l *slog.Logger, h *healthMonitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := h.getHealth(r.Context())
		if resp.Status != healthStatusOK {
			l.Warn("service unhealthy", "status", resp.Status)
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(resp)
	}
}

func handleHealthDB(l *slog.Logger, h *healthMonitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(h.checkDB(r.Context()))
	}
}

func handleHealthRedis(l *slog.Logger, h *healthMonitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(h.checkRedis(r.Context()))
	}
}

func handleHealthConnectors(l *slog.Logger, h *healthMonitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(h.checkConnectors(r.Context()))
	}
}

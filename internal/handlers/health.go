// internal/handlers/health.go
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/stocktrack-be/internal/core/ports"
)

// Pinger is anything that can report reachability
type Pinger interface {
	Ping(ctx context.Context) error
}

// QueueInspector is the part of *asynq.Inspector the health check reads
type QueueInspector interface {
	Queues() ([]string, error)
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
}

// HealthDeps are the dependencies a health check probes. Nil members are
// reported as disabled.
type HealthDeps struct {
	Database    ports.Database
	Cache       Pinger
	Queues      QueueInspector
	Version     string
	Environment string
	Store       string
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	deps      HealthDeps
	logger    *slog.Logger
	startTime time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(deps HealthDeps, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		deps:      deps,
		logger:    logger.With(slog.String("handler", "health")),
		startTime: time.Now(),
	}
}

// HealthStatus represents the health status of the application
type HealthStatus struct {
	Status      string                 `json:"status"`
	Version     string                 `json:"version"`
	Environment string                 `json:"environment"`
	Store       string                 `json:"store"`
	Uptime      string                 `json:"uptime"`
	Timestamp   time.Time              `json:"timestamp"`
	Services    map[string]ServiceInfo `json:"services"`
	System      SystemInfo             `json:"system"`
}

// ServiceInfo represents the status of a service dependency
type ServiceInfo struct {
	Status       string                 `json:"status"`
	Message      string                 `json:"message,omitempty"`
	ResponseTime string                 `json:"response_time,omitempty"`
	Details      map[string]interface{} `json:"details,omitempty"`
}

// SystemInfo represents system-level information
type SystemInfo struct {
	GoVersion     string `json:"go_version"`
	NumGoroutines int    `json:"num_goroutines"`
	MemoryAllocMB uint64 `json:"memory_alloc_mb"`
	NumGC         uint32 `json:"num_gc"`
}

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
	statusDisabled  = "disabled"
)

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := HealthStatus{
		Status:      statusHealthy,
		Version:     h.deps.Version,
		Environment: h.deps.Environment,
		Store:       h.deps.Store,
		Uptime:      time.Since(h.startTime).Round(time.Second).String(),
		Timestamp:   time.Now(),
		Services: map[string]ServiceInfo{
			"database": h.checkDatabase(ctx),
			"redis":    h.checkCache(ctx),
			"queue":    h.checkQueues(ctx),
		},
		System: systemInfo(),
	}

	for _, svc := range health.Services {
		if svc.Status == statusUnhealthy {
			health.Status = "degraded"
		}
	}

	statusCode := http.StatusOK
	if health.Status != statusHealthy {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	respondJSON(w, h.logger, statusCode, health)
}

// Readiness handles GET /ready. Only the store gates readiness; the cache
// degrades to read-through when Redis is away.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ready := true
	details := map[string]string{"database": statusDisabled, "redis": statusDisabled}

	if h.deps.Database != nil {
		details["database"] = "ready"
		if err := h.deps.Database.Ping(ctx); err != nil {
			ready = false
			details["database"] = "not ready"
		}
	}
	if h.deps.Cache != nil {
		details["redis"] = "ready"
		if err := h.deps.Cache.Ping(ctx); err != nil {
			details["redis"] = "not ready"
		}
	}

	statusCode := http.StatusOK
	if !ready {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	respondJSON(w, h.logger, statusCode, map[string]interface{}{
		"ready":   ready,
		"details": details,
	})
}

func (h *HealthHandler) checkDatabase(ctx context.Context) ServiceInfo {
	if h.deps.Database == nil {
		return ServiceInfo{Status: statusDisabled}
	}

	start := time.Now()
	if err := h.deps.Database.Ping(ctx); err != nil {
		h.logger.ErrorContext(ctx, "database health check failed",
			slog.String("error", err.Error()))
		return ServiceInfo{Status: statusUnhealthy, Message: err.Error()}
	}

	return ServiceInfo{
		Status:       statusHealthy,
		ResponseTime: time.Since(start).String(),
		Details:      h.deps.Database.Health(ctx),
	}
}

func (h *HealthHandler) checkCache(ctx context.Context) ServiceInfo {
	if h.deps.Cache == nil {
		return ServiceInfo{Status: statusDisabled}
	}

	start := time.Now()
	if err := h.deps.Cache.Ping(ctx); err != nil {
		h.logger.WarnContext(ctx, "redis health check failed",
			slog.String("error", err.Error()))
		return ServiceInfo{Status: statusUnhealthy, Message: err.Error()}
	}
	return ServiceInfo{Status: statusHealthy, ResponseTime: time.Since(start).String()}
}

func (h *HealthHandler) checkQueues(ctx context.Context) ServiceInfo {
	if h.deps.Queues == nil {
		return ServiceInfo{Status: statusDisabled}
	}

	start := time.Now()
	queues, err := h.deps.Queues.Queues()
	if err != nil {
		h.logger.ErrorContext(ctx, "queue health check failed",
			slog.String("error", err.Error()))
		return ServiceInfo{Status: statusUnhealthy, Message: err.Error()}
	}

	stats := make(map[string]interface{}, len(queues))
	for _, queue := range queues {
		qInfo, err := h.deps.Queues.GetQueueInfo(queue)
		if err != nil {
			continue
		}
		stats[queue] = map[string]interface{}{
			"size":     qInfo.Size,
			"active":   qInfo.Active,
			"pending":  qInfo.Pending,
			"retry":    qInfo.Retry,
			"archived": qInfo.Archived,
		}
	}

	return ServiceInfo{
		Status:       statusHealthy,
		ResponseTime: time.Since(start).String(),
		Details:      map[string]interface{}{"queues": stats},
	}
}

func systemInfo() SystemInfo {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return SystemInfo{
		GoVersion:     runtime.Version(),
		NumGoroutines: runtime.NumGoroutine(),
		MemoryAllocMB: memStats.Alloc / 1024 / 1024,
		NumGC:         memStats.NumGC,
	}
}


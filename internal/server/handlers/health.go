package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/bekosirs/bekoctl/internal/storage"
)

// Health states
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// HealthHandler reports whether the stub can serve its catalog
type HealthHandler struct {
	store   storage.Store
	started time.Time
	logger  *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store storage.Store, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{store: store, started: time.Now(), logger: logger}
}

// HealthResponse is the body of GET /api/health/
type HealthResponse struct {
	Status        string                 `json:"status"`
	UptimeSeconds int64                  `json:"uptime_seconds"`
	Checks        map[string]CheckResult `json:"checks"`
}

// CheckResult is the outcome of one probe
type CheckResult struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

// GetHealth handles GET /api/health/. An unreachable store answers 503; an
// empty catalog is reported as degraded but still answers 200.
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:        StatusHealthy,
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		Checks:        make(map[string]CheckResult, 2),
	}

	start := time.Now()
	products, err := h.store.ListProducts(r.Context())
	latency := time.Since(start).Milliseconds()

	if err != nil {
		resp.Status = StatusUnhealthy
		resp.Checks["storage"] = CheckResult{Status: StatusUnhealthy, Message: err.Error(), LatencyMS: latency}
		h.logger.Error("Health check failed: storage unhealthy", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	resp.Checks["storage"] = CheckResult{Status: StatusHealthy, LatencyMS: latency}

	if len(products) == 0 {
		resp.Status = StatusDegraded
		resp.Checks["catalog"] = CheckResult{Status: StatusDegraded, Message: "catalog is empty"}
	} else {
		resp.Checks["catalog"] = CheckResult{Status: StatusHealthy}
	}
	writeJSON(w, http.StatusOK, resp)
}

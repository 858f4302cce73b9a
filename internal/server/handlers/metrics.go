package handlers

import (
	"log/slog"
	"net/http"
	"sync/atomic"
)

// MetricsHandler counts stub service activity
type MetricsHandler struct {
	logger *slog.Logger

	// Atomic counters for thread-safe increments
	totalRequests     atomic.Uint64
	logins            atomic.Uint64
	loginFailures     atomic.Uint64
	registrations     atomic.Uint64
	passwordChanges   atomic.Uint64
	emailChanges      atomic.Uint64
	productReads      atomic.Uint64
	authFailures      atomic.Uint64
	rateLimitExceeded atomic.Uint64
	validationErrors  atomic.Uint64
}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler(logger *slog.Logger) *MetricsHandler {
	return &MetricsHandler{
		logger: logger,
	}
}

// MetricsResponse represents the metrics response
type MetricsResponse struct {
	Total    uint64            `json:"total_requests"`
	ByType   map[string]uint64 `json:"by_type"`
	ByStatus map[string]uint64 `json:"by_status"`
}

// Snapshot returns the current counter values
func (h *MetricsHandler) Snapshot() MetricsResponse {
	return MetricsResponse{
		Total: h.totalRequests.Load(),
		ByType: map[string]uint64{
			"logins":           h.logins.Load(),
			"registrations":    h.registrations.Load(),
			"password_changes": h.passwordChanges.Load(),
			"email_changes":    h.emailChanges.Load(),
			"product_reads":    h.productReads.Load(),
		},
		ByStatus: map[string]uint64{
			"login_failures":      h.loginFailures.Load(),
			"auth_failures":       h.authFailures.Load(),
			"rate_limit_exceeded": h.rateLimitExceeded.Load(),
			"validation_errors":   h.validationErrors.Load(),
		},
	}
}

// GetMetrics handles GET /api/metrics/
func (h *MetricsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Snapshot())
}

// Count returns middleware that counts every request
func (h *MetricsHandler) Count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.totalRequests.Add(1)
		next.ServeHTTP(w, r)
	})
}

// Counter methods. A nil handler counts nothing.

func (h *MetricsHandler) IncrementLogins() {
	if h != nil {
		h.logins.Add(1)
	}
}

func (h *MetricsHandler) IncrementLoginFailures() {
	if h != nil {
		h.loginFailures.Add(1)
	}
}

func (h *MetricsHandler) IncrementRegistrations() {
	if h != nil {
		h.registrations.Add(1)
	}
}

func (h *MetricsHandler) IncrementPasswordChanges() {
	if h != nil {
		h.passwordChanges.Add(1)
	}
}

func (h *MetricsHandler) IncrementEmailChanges() {
	if h != nil {
		h.emailChanges.Add(1)
	}
}

func (h *MetricsHandler) IncrementProductReads() {
	if h != nil {
		h.productReads.Add(1)
	}
}

// IncrementAuthFailures has the signature of a middleware callback
func (h *MetricsHandler) IncrementAuthFailures(*http.Request) {
	if h != nil {
		h.authFailures.Add(1)
	}
}

// IncrementRateLimitExceeded has the signature of a middleware callback
func (h *MetricsHandler) IncrementRateLimitExceeded(*http.Request) {
	if h != nil {
		h.rateLimitExceeded.Add(1)
	}
}

func (h *MetricsHandler) IncrementValidationErrors() {
	if h != nil {
		h.validationErrors.Add(1)
	}
}

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/bekosirs/bekoctl/internal/server/middleware"
	"github.com/bekosirs/bekoctl/internal/storage"
)

// ProductHandler serves the catalog
type ProductHandler struct {
	store   storage.Store
	metrics *MetricsHandler
	logger  *slog.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(store storage.Store, metrics *MetricsHandler, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		store:   store,
		metrics: metrics,
		logger:  logger,
	}
}

// ListProducts handles GET /api/products/
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.store.ListProducts(r.Context())
	if err != nil {
		h.logger.Error("Failed to list products", "request_id", middleware.RequestID(r.Context()), "error", err)
		writeDetail(w, http.StatusInternalServerError, MsgInternal)
		return
	}

	h.metrics.IncrementProductReads()
	h.logger.Debug("Products listed", "count", len(products))
	writeJSON(w, http.StatusOK, products)
}

// ListMyProducts handles GET /api/my-products/
func (h *ProductHandler) ListMyProducts(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	products, err := h.store.ListAssignedProducts(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list assigned products", "user_id", userID, "request_id", middleware.RequestID(r.Context()), "error", err)
		writeDetail(w, http.StatusInternalServerError, MsgInternal)
		return
	}

	h.metrics.IncrementProductReads()
	h.logger.Debug("Assigned products listed", "user_id", userID, "count", len(products))
	writeJSON(w, http.StatusOK, products)
}

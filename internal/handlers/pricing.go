// Package handlers exposes the pricing services over HTTP.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"resale-pricing-backend/internal/service/seasonal"
	apperrors "resale-pricing-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const tenantHeader = "X-Tenant-ID"

// PricingHandler serves the seasonal multiplier and pattern endpoints.
type PricingHandler struct {
	seasonal *seasonal.Service
	logger   *zap.Logger
}

// NewPricingHandler creates the handler.
func NewPricingHandler(seasonalService *seasonal.Service, logger *zap.Logger) *PricingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PricingHandler{seasonal: seasonalService, logger: logger}
}

// Routes mounts the pricing API onto a chi router.
func (h *PricingHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.Health)
	r.Route("/api/pricing", func(r chi.Router) {
		r.Get("/multiplier", h.GetMultiplier)
		r.Get("/pattern", h.GetPattern)
	})
	return r
}

// Health reports process liveness.
func (h *PricingHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetMultiplier returns the seasonal price multiplier for a category,
// optional brand, and optional month (defaults to the current month).
// It never returns a hard failure: the worst case is the neutral 1.0.
func (h *PricingHandler) GetMultiplier(w http.ResponseWriter, r *http.Request) {
	tenant := r.Header.Get(tenantHeader)
	category := r.URL.Query().Get("category")
	if tenant == "" || category == "" {
		writeError(w, http.StatusBadRequest, "tenant header and category are required")
		return
	}

	brand := r.URL.Query().Get("brand")
	month := time.Now().Month()
	if raw := r.URL.Query().Get("month"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 12 {
			writeError(w, http.StatusBadRequest, "month must be an integer in [1,12]")
			return
		}
		month = time.Month(parsed)
	}

	multiplier := h.seasonal.CalculateSeasonalMultiplier(r.Context(), tenant, category, brand, month)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"category":   category,
		"brand":      brand,
		"month":      int(month),
		"multiplier": multiplier,
	})
}

// GetPattern runs on-demand pattern detection for analytics callers.
func (h *PricingHandler) GetPattern(w http.ResponseWriter, r *http.Request) {
	tenant := r.Header.Get(tenantHeader)
	category := r.URL.Query().Get("category")
	if tenant == "" || category == "" {
		writeError(w, http.StatusBadRequest, "tenant header and category are required")
		return
	}
	brand := r.URL.Query().Get("brand")

	pattern, err := h.seasonal.DetectSeasonalPattern(r.Context(), tenant, category, brand)
	if err != nil {
		h.logger.Error("pattern detection failed",
			zap.String("category", category), zap.Error(err))
		writeError(w, statusFor(err), "pattern detection failed")
		return
	}
	if pattern == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"significant": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"significant": true,
		"pattern":     pattern,
	})
}

// statusFor maps service error categories to HTTP status codes.
func statusFor(err error) int {
	switch {
	case apperrors.IsValidation(err):
		return http.StatusBadRequest
	case apperrors.IsNotFound(err):
		return http.StatusNotFound
	case apperrors.IsThrottling(err), apperrors.IsUnavailable(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/retailpoint/pos-backend/internal/services"
)

type AdminHandler struct {
	restore *services.RestoreService
	reports *services.ReportService
}

func NewAdminHandler(restore *services.RestoreService, reports *services.ReportService) *AdminHandler {
	return &AdminHandler{
		restore: restore,
		reports: reports,
	}
}

// CleanupOrphaned force-closes sessions abandoned past an age threshold
// @Summary Close abandoned sessions
// @Description Force-close durable sessions still open past max_age_hours with zero variance
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param max_age_hours query int false "Age threshold in hours (default 24)"
// @Success 200 {object} object{closed=int}
// @Router /admin/cleanup-orphaned [post]
func (h *AdminHandler) CleanupOrphaned(w http.ResponseWriter, r *http.Request) {
	maxAgeHours := 24
	if raw := r.URL.Query().Get("max_age_hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			services.SendErrorResponse(w, "max_age_hours must be a positive integer", http.StatusBadRequest, nil)
			return
		}
		maxAgeHours = parsed
	}

	closed, err := h.restore.CleanupOrphaned(r.Context(), time.Duration(maxAgeHours)*time.Hour)
	if err != nil {
		services.WriteServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"closed":  closed,
	})
}

// ClosingSlip returns the printable close-of-shift summary with its QR
// @Summary Closing slip
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session id"
// @Success 200 {object} services.ClosingSlip
// @Failure 404 {object} services.ErrorResponse
// @Router /sessions/closing-slip/{sessionId} [get]
func (h *AdminHandler) ClosingSlip(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	if sessionID == "" {
		services.SendErrorResponse(w, "sessionId is required", http.StatusBadRequest, nil)
		return
	}

	slip, image, err := h.reports.ClosingSlip(r.Context(), sessionID)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusNotFound, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"slip":    slip,
		"qrImage": image,
	})
}

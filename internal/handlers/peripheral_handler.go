package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/retailpoint/pos-backend/internal/middleware"
	"github.com/retailpoint/pos-backend/internal/services"
)

type PeripheralHandler struct {
	peripherals *services.PeripheralService
	validator   *services.ValidationHelper
}

func NewPeripheralHandler(peripherals *services.PeripheralService) *PeripheralHandler {
	return &PeripheralHandler{
		peripherals: peripherals,
		validator:   services.NewValidationHelper(),
	}
}

// Claim takes exclusive ownership of the customer display
// @Summary Claim the customer display
// @Tags peripheral
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{port=string} true "Display port"
// @Success 200 {object} services.PeripheralStatus
// @Failure 409 {object} services.ErrorResponse
// @Router /peripheral/claim [post]
func (h *PeripheralHandler) Claim(w http.ResponseWriter, r *http.Request) {
	cashierID := middleware.CashierID(r.Context())
	if cashierID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req struct {
		Port string `json:"port" validate:"required"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if err := h.peripherals.Assign(cashierID, middleware.CashierName(r.Context()), req.Port); err != nil {
		services.WriteServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"status":  h.peripherals.Status(),
	})
}

// Release gives up ownership of the customer display
// @Summary Release the customer display
// @Tags peripheral
// @Produce json
// @Security BearerAuth
// @Success 200 {object} services.PeripheralStatus
// @Router /peripheral/release [post]
func (h *PeripheralHandler) Release(w http.ResponseWriter, r *http.Request) {
	cashierID := middleware.CashierID(r.Context())
	if cashierID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	h.peripherals.Release(cashierID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"status":  h.peripherals.Status(),
	})
}

// Status reports display ownership and connection state
// @Summary Display status
// @Tags peripheral
// @Produce json
// @Security BearerAuth
// @Success 200 {object} services.PeripheralStatus
// @Router /peripheral [get]
func (h *PeripheralHandler) Status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"status":  h.peripherals.Status(),
	})
}

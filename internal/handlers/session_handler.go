package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/retailpoint/pos-backend/internal/middleware"
	"github.com/retailpoint/pos-backend/internal/services"
)

type SessionHandler struct {
	sessions  *services.SessionService
	validator *services.ValidationHelper
}

func NewSessionHandler(sessions *services.SessionService) *SessionHandler {
	return &SessionHandler{
		sessions:  sessions,
		validator: services.NewValidationHelper(),
	}
}

// OpenSession opens (or idempotently returns) the cashier's session
// @Summary Open cashier session
// @Description Open a working session with an initial drawer count; re-opening an active session returns it unchanged
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body services.DrawerConfig true "Drawer configuration"
// @Success 201 {object} models.Session
// @Failure 400 {object} services.ErrorResponse
// @Router /sessions [post]
func (h *SessionHandler) OpenSession(w http.ResponseWriter, r *http.Request) {
	cashierID := middleware.CashierID(r.Context())
	if cashierID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req services.DrawerConfig

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

	sess, err := h.sessions.Open(r.Context(), cashierID, middleware.CashierName(r.Context()), req)
	if err != nil {
		services.WriteServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"session": sess,
	})
}

// AddMovement records a cash movement against the cashier's drawer
// @Summary Add cash movement
// @Description Record a cash-in or cash-out against the open drawer
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body services.MovementInput true "Movement data"
// @Success 201 {object} models.Movement
// @Failure 404 {object} services.ErrorResponse
// @Failure 422 {object} services.ErrorResponse
// @Router /sessions/movements [post]
func (h *SessionHandler) AddMovement(w http.ResponseWriter, r *http.Request) {
	cashierID := middleware.CashierID(r.Context())
	if cashierID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req services.MovementInput

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

	movement, balance, err := h.sessions.AddMovement(r.Context(), cashierID, req)
	if err != nil {
		services.WriteServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"success":  true,
		"movement": movement,
		"balance":  balance,
	})
}

// CloseSession ends the cashier's session with a counted drawer
// @Summary Close cashier session
// @Description Close the open session, computing variance against the expected amount
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body services.ClosingData true "Closing count"
// @Success 200 {object} models.Session
// @Failure 404 {object} services.ErrorResponse
// @Router /sessions/close [post]
func (h *SessionHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	cashierID := middleware.CashierID(r.Context())
	if cashierID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req services.ClosingData

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

	sess, err := h.sessions.Close(r.Context(), cashierID, req)
	if err != nil {
		services.WriteServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"session": sess,
	})
}

// GetDrawer returns the cashier's drawer with expected amount recomputed
// @Summary Get drawer
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Drawer
// @Failure 404 {object} services.ErrorResponse
// @Router /sessions/drawer [get]
func (h *SessionHandler) GetDrawer(w http.ResponseWriter, r *http.Request) {
	cashierID := middleware.CashierID(r.Context())
	if cashierID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	drawer, err := h.sessions.GetDrawer(cashierID)
	if err != nil {
		services.WriteServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"drawer":  drawer,
	})
}

// GetCurrentSession returns the cashier's own active session
// @Summary Get current session
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Session
// @Failure 404 {object} services.ErrorResponse
// @Router /sessions/current [get]
func (h *SessionHandler) GetCurrentSession(w http.ResponseWriter, r *http.Request) {
	cashierID := middleware.CashierID(r.Context())
	if cashierID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	sess, err := h.sessions.GetSession(cashierID)
	if err != nil {
		services.WriteServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"session": sess,
	})
}

// ListSessions lists every active session
// @Summary List active sessions
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Session
// @Router /sessions [get]
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := h.sessions.ListActive()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success":  true,
		"sessions": sessions,
	})
}

// KeepAlive marks cashier activity, clearing a restored flag if present
// @Summary Session keep-alive
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Session
// @Failure 404 {object} services.ErrorResponse
// @Router /sessions/keepalive [post]
func (h *SessionHandler) KeepAlive(w http.ResponseWriter, r *http.Request) {
	cashierID := middleware.CashierID(r.Context())
	if cashierID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	sess, err := h.sessions.Touch(cashierID)
	if err != nil {
		services.WriteServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"session": sess,
	})
}

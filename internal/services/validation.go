package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrorResponse represents error response structure
type ErrorResponse struct {
	Error   string            `json:"error"`             // Error message
	Details map[string]string `json:"details,omitempty"` // Validation details
}

// ValidationHelper provides shared validation functionality
type ValidationHelper struct {
	validator *validator.Validate
}

// NewValidationHelper creates a new validation helper
func NewValidationHelper() *ValidationHelper {
	return &ValidationHelper{
		validator: validator.New(),
	}
}

// ValidateStruct validates a struct and returns validation errors
func (vh *ValidationHelper) ValidateStruct(s any) error {
	return vh.validator.Struct(s)
}

// SendErrorResponse sends a JSON error response
func SendErrorResponse(w http.ResponseWriter, message string, statusCode int, validationErr error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResp := ErrorResponse{Error: message}
	if validationErr != nil {
		errorResp.Details = make(map[string]string)
		var fieldErrs validator.ValidationErrors
		if errors.As(validationErr, &fieldErrs) {
			for _, err := range fieldErrs {
				errorResp.Details[err.Field()] = fmt.Sprintf("Field Validation Failed on '%s' tag", err.Tag())
			}
		}
	}

	json.NewEncoder(w).Encode(errorResp)
}

// WriteServiceError maps a service-layer error onto the matching HTTP
// status with enough structured detail for the register UI to render a
// specific message.
func WriteServiceError(w http.ResponseWriter, err error) {
	var (
		validationErr   *ValidationError
		notFoundErr     *NotFoundError
		insufficientErr *InsufficientFundsError
		busyErr         *ResourceBusyError
		persistenceErr  *PersistenceError
	)

	w.Header().Set("Content-Type", "application/json")

	switch {
	case errors.As(err, &validationErr):
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(ErrorResponse{
			Error:   validationErr.Error(),
			Details: map[string]string{validationErr.Field: validationErr.Message},
		})
	case errors.As(err, &notFoundErr):
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(ErrorResponse{
			Error:   notFoundErr.Error(),
			Details: map[string]string{"cashier_id": notFoundErr.CashierID},
		})
	case errors.As(err, &insufficientErr):
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(ErrorResponse{
			Error: insufficientErr.Error(),
			Details: map[string]string{
				"requested": fmt.Sprintf("%d", insufficientErr.Requested),
				"available": fmt.Sprintf("%d", insufficientErr.Available),
				"shortfall": fmt.Sprintf("%d", insufficientErr.Shortfall()),
			},
		})
	case errors.As(err, &busyErr):
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(ErrorResponse{
			Error: busyErr.Error(),
			Details: map[string]string{
				"owner":      busyErr.Owner,
				"owner_name": busyErr.OwnerName,
				"held_since": busyErr.HeldSince.Format(time.RFC3339),
			},
		})
	case errors.As(err, &persistenceErr):
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(ErrorResponse{Error: persistenceErr.Error()})
	default:
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(ErrorResponse{Error: err.Error()})
	}
}

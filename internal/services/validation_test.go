package services

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationHelper_ValidateStruct(t *testing.T) {
	vh := NewValidationHelper()

	t.Run("valid drawer config", func(t *testing.T) {
		cfg := DrawerConfig{OpeningAmount: 10000}
		assert.NoError(t, vh.ValidateStruct(&cfg))
	})

	t.Run("invalid movement input", func(t *testing.T) {
		input := MovementInput{
			Type:   "sideways", // not in/out
			Amount: 0,          // must be positive
			// Reason missing
		}

		err := vh.ValidateStruct(&input)
		require.Error(t, err)

		var validationErrors validator.ValidationErrors
		require.ErrorAs(t, err, &validationErrors)
		assert.Len(t, validationErrors, 3) // Type, Amount, Reason errors
	})
}

func TestWriteServiceError(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
	}{
		{"validation", &ValidationError{Field: "opening_amount", Message: "must be greater than zero"}, 400, "opening_amount"},
		{"not found", &NotFoundError{CashierID: "c1"}, 404, "cashier_id"},
		{"insufficient funds", &InsufficientFundsError{Requested: 200, Available: 100}, 422, "shortfall"},
		{"resource busy", &ResourceBusyError{Owner: "c2", HeldSince: time.Now()}, 409, "owner"},
		{"persistence", &PersistenceError{Op: "close session", Err: errors.New("down")}, 502, ""},
		{"unknown", errors.New("boom"), 500, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteServiceError(rec, tc.err)
			assert.Equal(t, tc.wantStatus, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
			if tc.wantDetail != "" {
				assert.Contains(t, resp.Details, tc.wantDetail)
			}
		})
	}
}

func TestInsufficientFundsErrorShortfall(t *testing.T) {
	err := &InsufficientFundsError{Requested: 20000, Available: 11550}
	assert.Equal(t, int64(8450), err.Shortfall())
	assert.Contains(t, err.Error(), "8450")
}

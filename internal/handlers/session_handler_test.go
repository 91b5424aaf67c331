package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailpoint/pos-backend/internal/config"
	"github.com/retailpoint/pos-backend/internal/display"
	"github.com/retailpoint/pos-backend/internal/events"
	"github.com/retailpoint/pos-backend/internal/ledger"
	"github.com/retailpoint/pos-backend/internal/middleware"
	"github.com/retailpoint/pos-backend/internal/services"
)

// fakeStore is an in-memory ledger.Store good enough for handler tests.
type fakeStore struct{}

func (fakeStore) CreateSession(context.Context, *ledger.SessionRecord) error   { return nil }
func (fakeStore) CreateMovement(context.Context, *ledger.MovementRecord) error { return nil }
func (fakeStore) FindSession(context.Context, string) (*ledger.SessionRecord, error) {
	return nil, context.Canceled
}
func (fakeStore) MovementsBySession(context.Context, string) ([]ledger.MovementRecord, error) {
	return nil, nil
}
func (fakeStore) OpenSessions(context.Context) ([]ledger.SessionRecord, error) { return nil, nil }
func (fakeStore) OpenSessionsBefore(context.Context, time.Time) ([]ledger.SessionRecord, error) {
	return nil, nil
}
func (fakeStore) CloseSession(context.Context, string, ledger.Closure) error { return nil }

// fakeDriver is a display.Driver that always succeeds.
type fakeDriver struct{}

func (fakeDriver) Connect(string, display.Config) error { return nil }
func (fakeDriver) Write(string, string) error           { return nil }
func (fakeDriver) Disconnect() error                    { return nil }
func (fakeDriver) Status() display.Status               { return display.Status{} }

func newTestHandler() *SessionHandler {
	bus := events.NewBus()
	peripherals := services.NewPeripheralService(fakeDriver{}, bus, &config.DisplayConfig{HandoffPause: time.Millisecond})
	sessions := services.NewSessionService(fakeStore{}, bus, peripherals)
	return NewSessionHandler(sessions)
}

func doJSON(t *testing.T, handler http.HandlerFunc, method, path string, body any, cashierID string) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if cashierID != "" {
		req = req.WithContext(middleware.WithCashier(req.Context(), cashierID, "Ana"))
	}

	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestOpenSessionHandler(t *testing.T) {
	h := newTestHandler()

	t.Run("opens a session", func(t *testing.T) {
		rec := doJSON(t, h.OpenSession, http.MethodPost, "/sessions",
			map[string]any{"opening_amount": 10000}, "cashier-1")
		assert.Equal(t, http.StatusCreated, rec.Code)

		var resp struct {
			Success bool `json:"success"`
			Session struct {
				Drawer struct {
					CurrentAmount int64 `json:"current_amount"`
				} `json:"drawer"`
			} `json:"session"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, int64(10000), resp.Session.Drawer.CurrentAmount)
	})

	t.Run("rejects zero opening amount", func(t *testing.T) {
		rec := doJSON(t, h.OpenSession, http.MethodPost, "/sessions",
			map[string]any{"opening_amount": 0}, "cashier-2")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		rec := doJSON(t, h.OpenSession, http.MethodPost, "/sessions",
			map[string]any{"opening_amount": 10000, "bogus": true}, "cashier-3")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("requires authentication", func(t *testing.T) {
		rec := doJSON(t, h.OpenSession, http.MethodPost, "/sessions",
			map[string]any{"opening_amount": 10000}, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAddMovementHandler(t *testing.T) {
	h := newTestHandler()

	rec := doJSON(t, h.OpenSession, http.MethodPost, "/sessions",
		map[string]any{"opening_amount": 10000}, "cashier-1")
	require.Equal(t, http.StatusCreated, rec.Code)

	t.Run("records a movement", func(t *testing.T) {
		rec := doJSON(t, h.AddMovement, http.MethodPost, "/sessions/movements",
			map[string]any{"type": "in", "amount": 2550, "reason": "cash sale"}, "cashier-1")
		assert.Equal(t, http.StatusCreated, rec.Code)

		var resp struct {
			Balance int64 `json:"balance"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, int64(12550), resp.Balance)
	})

	t.Run("rejects overdraw with structured detail", func(t *testing.T) {
		rec := doJSON(t, h.AddMovement, http.MethodPost, "/sessions/movements",
			map[string]any{"type": "out", "amount": 99999, "reason": "payout"}, "cashier-1")
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var resp services.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "99999", resp.Details["requested"])
		assert.Equal(t, "12550", resp.Details["available"])
	})

	t.Run("no session is a 404", func(t *testing.T) {
		rec := doJSON(t, h.AddMovement, http.MethodPost, "/sessions/movements",
			map[string]any{"type": "in", "amount": 100, "reason": "x"}, "ghost")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("rejects invalid type", func(t *testing.T) {
		rec := doJSON(t, h.AddMovement, http.MethodPost, "/sessions/movements",
			map[string]any{"type": "sideways", "amount": 100, "reason": "x"}, "cashier-1")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCloseSessionHandler(t *testing.T) {
	h := newTestHandler()

	rec := doJSON(t, h.OpenSession, http.MethodPost, "/sessions",
		map[string]any{"opening_amount": 10000}, "cashier-1")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h.CloseSession, http.MethodPost, "/sessions/close",
		map[string]any{"counted_amount": 9950, "accept_variance": true}, "cashier-1")
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Session struct {
			Variance int64 `json:"variance"`
		} `json:"session"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(-50), resp.Session.Variance)

	// A second close finds nothing.
	rec = doJSON(t, h.CloseSession, http.MethodPost, "/sessions/close",
		map[string]any{"counted_amount": 0}, "cashier-1")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

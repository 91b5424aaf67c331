package services

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/retailpoint/pos-backend/internal/events"
	"github.com/retailpoint/pos-backend/internal/ledger"
	"github.com/retailpoint/pos-backend/internal/models"
)

// DrawerConfig is the caller-supplied configuration for opening a drawer.
type DrawerConfig struct {
	OpeningAmount  int64          `json:"opening_amount" validate:"required,gt=0"` // in cents
	Denominations  map[string]int `json:"denominations,omitempty"`
	CountMethod    string         `json:"count_method,omitempty"`
	Notes          string         `json:"notes,omitempty"`
	PeripheralPort string         `json:"peripheral_port,omitempty"`
}

// MovementInput is the caller-supplied data for one cash movement.
type MovementInput struct {
	Type   string `json:"type" validate:"required,oneof=in out"`
	Amount int64  `json:"amount" validate:"required,gt=0"` // in cents
	Reason string `json:"reason" validate:"required"`
	Notes  string `json:"notes,omitempty"`
}

// ClosingData is the caller-supplied data for closing a session.
type ClosingData struct {
	CountedAmount  int64          `json:"counted_amount" validate:"gte=0"` // in cents
	Denominations  map[string]int `json:"denominations,omitempty"`
	CountMethod    string         `json:"count_method,omitempty"`
	Notes          string         `json:"notes,omitempty"`
	AcceptVariance bool           `json:"accept_variance"`
}

// SessionService is the single in-memory authority over active cashier
// sessions and their drawers. All mutations happen under one lock, so
// readers only ever observe fully applied state; durable persistence is
// write-through for audit and recovery, never read back during normal
// operation.
type SessionService struct {
	store       ledger.Store
	bus         events.Publisher
	peripherals *PeripheralService

	mu       sync.Mutex
	sessions map[string]*models.Session // keyed by cashier id
}

func NewSessionService(store ledger.Store, bus events.Publisher, peripherals *PeripheralService) *SessionService {
	return &SessionService{
		store:       store,
		bus:         bus,
		peripherals: peripherals,
		sessions:    make(map[string]*models.Session),
	}
}

// Open starts a working session for a cashier. Calling it again while a
// session is active is idempotent: the cashier's client may re-open on
// reconnect without harm, and a restored session flips back to active.
func (s *SessionService) Open(ctx context.Context, cashierID, cashierName string, cfg DrawerConfig) (*models.Session, error) {
	if cfg.OpeningAmount <= 0 {
		return nil, &ValidationError{Field: "opening_amount", Message: "must be greater than zero"}
	}

	s.mu.Lock()
	if existing, ok := s.sessions[cashierID]; ok {
		wasRestored := existing.Restored
		existing.Restored = false
		existing.RestoredAt = nil
		existing.Status = models.SessionActive
		snapshot := *existing
		s.mu.Unlock()

		if wasRestored {
			s.publishSessionChanged(&snapshot, false)
		}
		return &snapshot, nil
	}
	s.mu.Unlock()

	now := time.Now()
	record := &ledger.SessionRecord{
		ID:            uuid.NewString(),
		CashierID:     cashierID,
		CashierName:   cashierName,
		Status:        "open",
		OpeningAmount: cfg.OpeningAmount,
		Denominations: cfg.Denominations,
		CountMethod:   cfg.CountMethod,
		Notes:         cfg.Notes,
		OpenedAt:      now,
	}
	if err := s.store.CreateSession(ctx, record); err != nil {
		// Cash handling at the register must not depend on the store being
		// reachable; durability catches up through the audit trail.
		log.Printf("[SESSION] Failed to persist session open for %s: %v", cashierID, err)
	}

	sess := &models.Session{
		CashierID:   cashierID,
		CashierName: cashierName,
		Status:      models.SessionActive,
		RecordID:    record.ID,
		StartedAt:   now,
		Drawer: models.Drawer{
			OpeningAmount:   cfg.OpeningAmount,
			CurrentAmount:   cfg.OpeningAmount,
			ExpectedAmount:  cfg.OpeningAmount,
			FoldBase:        cfg.OpeningAmount,
			Denominations:   cfg.Denominations,
			CountMethod:     cfg.CountMethod,
			Notes:           cfg.Notes,
			OpenedAt:        now,
			RecentMovements: []models.Movement{},
		},
	}

	s.mu.Lock()
	if existing, ok := s.sessions[cashierID]; ok {
		// Lost the race to a concurrent open by the same cashier; keep the
		// registered session, idempotently.
		snapshot := *existing
		s.mu.Unlock()
		return &snapshot, nil
	}
	s.sessions[cashierID] = sess
	snapshot := *sess
	s.mu.Unlock()

	s.publishSessionChanged(&snapshot, false)

	if cfg.PeripheralPort != "" {
		s.requestPeripheral(cashierID, cashierName, cfg.PeripheralPort)

		s.mu.Lock()
		if cur, ok := s.sessions[cashierID]; ok {
			snapshot = *cur
		}
		s.mu.Unlock()
	}
	return &snapshot, nil
}

// requestPeripheral asks the arbiter for the display and records the
// outcome on the session's binding. A display failure never fails the
// session: cash handling does not depend on a customer display.
func (s *SessionService) requestPeripheral(cashierID, cashierName, port string) {
	err := s.peripherals.Assign(cashierID, cashierName, port)

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[cashierID]
	if !ok {
		return
	}
	sess.Peripheral.Requested = true
	if err != nil {
		sess.Peripheral.Connected = false
		sess.Peripheral.LastError = err.Error()
		log.Printf("[SESSION] Display unavailable for %s: %v", cashierID, err)
		return
	}
	sess.Peripheral.Connected = true
	sess.Peripheral.Port = port
	sess.Peripheral.LastError = ""
}

// AddMovement records one cash-in or cash-out against the cashier's open
// drawer and returns the created movement with the new balance.
//
// The in-memory ledger is the operational source of truth for the shift:
// the balance mutates atomically under the lock, and the durable write is
// fire-and-forget. A movement that would drive the balance negative is
// rejected before anything is applied or persisted.
func (s *SessionService) AddMovement(ctx context.Context, cashierID string, input MovementInput) (*models.Movement, int64, error) {
	if input.Type != models.MovementIn && input.Type != models.MovementOut {
		return nil, 0, &ValidationError{Field: "type", Message: "must be in or out"}
	}
	if input.Amount <= 0 {
		return nil, 0, &ValidationError{Field: "amount", Message: "must be greater than zero"}
	}

	s.mu.Lock()
	sess, ok := s.sessions[cashierID]
	if !ok {
		s.mu.Unlock()
		return nil, 0, &NotFoundError{CashierID: cashierID}
	}

	if input.Type == models.MovementOut && input.Amount > sess.Drawer.CurrentAmount {
		err := &InsufficientFundsError{Requested: input.Amount, Available: sess.Drawer.CurrentAmount}
		s.mu.Unlock()
		return nil, 0, err
	}

	movement := models.Movement{
		ID:        uuid.NewString(),
		SessionID: sess.RecordID,
		CashierID: cashierID,
		Type:      input.Type,
		Amount:    input.Amount,
		Reason:    input.Reason,
		Notes:     input.Notes,
		CreatedBy: sess.CashierName,
		CreatedAt: time.Now(),
	}

	sess.Drawer.CurrentAmount += movement.Signed()
	sess.Drawer.RecentMovements = append([]models.Movement{movement}, sess.Drawer.RecentMovements...)
	for len(sess.Drawer.RecentMovements) > models.RecentMovementsCap {
		last := len(sess.Drawer.RecentMovements) - 1
		evicted := sess.Drawer.RecentMovements[last]
		sess.Drawer.FoldBase += evicted.Signed()
		sess.Drawer.RecentMovements = sess.Drawer.RecentMovements[:last]
	}
	// Recompute from the whole ring instead of adjusting the previous
	// value, so the expected amount self-corrects against any drift.
	sess.Drawer.ExpectedAmount = sess.Drawer.FoldExpected()

	balance := sess.Drawer.CurrentAmount
	variance := sess.Drawer.CurrentAmount - sess.Drawer.ExpectedAmount
	s.mu.Unlock()

	go func() {
		record := ledger.MovementRecord(movement)
		if err := s.store.CreateMovement(context.Background(), &record); err != nil {
			log.Printf("[SESSION] Failed to persist movement %s for %s: %v", movement.ID, cashierID, err)
		}
	}()

	s.bus.Publish(events.Event{
		Type: events.MovementAdded,
		At:   time.Now(),
		Payload: events.MovementAddedPayload{
			CashierID: cashierID,
			Movement:  movement,
			Balance:   balance,
			Variance:  variance,
		},
	})

	return &movement, balance, nil
}

// Close ends the cashier's session, computing variance against the
// recomputed expected amount. Unlike movements, closing is a terminal,
// auditable boundary: a persistence failure is surfaced to the caller.
// The in-memory session is removed either way, so a store outage can
// never leave a session stuck open and blocking re-open.
func (s *SessionService) Close(ctx context.Context, cashierID string, data ClosingData) (*models.Session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[cashierID]
	if !ok {
		s.mu.Unlock()
		return nil, &NotFoundError{CashierID: cashierID}
	}

	now := time.Now()
	sess.Drawer.ExpectedAmount = sess.Drawer.FoldExpected()
	sess.Status = models.SessionClosed
	sess.EndedAt = &now
	sess.CountedAmount = data.CountedAmount
	sess.Variance = data.CountedAmount - sess.Drawer.ExpectedAmount
	sess.VarianceAccepted = data.AcceptVariance
	if data.Denominations != nil {
		sess.Drawer.Denominations = data.Denominations
	}
	if data.CountMethod != "" {
		sess.Drawer.CountMethod = data.CountMethod
	}

	closed := *sess
	delete(s.sessions, cashierID)
	s.mu.Unlock()

	s.peripherals.Release(cashierID)

	err := s.store.CloseSession(ctx, closed.RecordID, ledger.Closure{
		CountedAmount:    closed.CountedAmount,
		ExpectedAmount:   closed.Drawer.ExpectedAmount,
		Variance:         closed.Variance,
		VarianceAccepted: closed.VarianceAccepted,
		Notes:            data.Notes,
		ClosedAt:         now,
	})

	s.bus.Publish(events.Event{
		Type: events.SessionChanged,
		At:   now,
		Payload: events.SessionChangedPayload{
			CashierID:       closed.CashierID,
			CashierName:     closed.CashierName,
			Status:          models.SessionClosed,
			DurationSeconds: int64(now.Sub(closed.StartedAt).Seconds()),
			CountedAmount:   closed.CountedAmount,
			ExpectedAmount:  closed.Drawer.ExpectedAmount,
			Variance:        closed.Variance,
		},
	})

	if err != nil {
		log.Printf("[SESSION] Failed to persist session close for %s: %v", cashierID, err)
		return &closed, &PersistenceError{Op: "close session", Err: err}
	}
	return &closed, nil
}

// GetSession returns a snapshot of the cashier's active session.
func (s *SessionService) GetSession(cashierID string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[cashierID]
	if !ok {
		return nil, &NotFoundError{CashierID: cashierID}
	}
	snapshot := *sess
	return &snapshot, nil
}

// GetDrawer returns a snapshot of the cashier's drawer with the expected
// amount recomputed on read; the cached field is never trusted.
func (s *SessionService) GetDrawer(cashierID string) (*models.Drawer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[cashierID]
	if !ok {
		return nil, &NotFoundError{CashierID: cashierID}
	}
	sess.Drawer.ExpectedAmount = sess.Drawer.FoldExpected()
	drawer := sess.Drawer
	drawer.RecentMovements = append([]models.Movement{}, sess.Drawer.RecentMovements...)
	return &drawer, nil
}

// ListActive returns snapshots of every active session.
func (s *SessionService) ListActive() []models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]models.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		list = append(list, *sess)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].StartedAt.Before(list[j].StartedAt) })
	return list
}

// Touch is the keep-alive from the cashier's client. The first activity
// after a restart clears the restored mark.
func (s *SessionService) Touch(cashierID string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[cashierID]
	if !ok {
		return nil, &NotFoundError{CashierID: cashierID}
	}
	sess.Restored = false
	sess.RestoredAt = nil
	snapshot := *sess
	return &snapshot, nil
}

// Adopt inserts a rehydrated session directly into the live map, bypassing
// open validation; the data already passed it when originally created.
// Used only by startup restoration.
func (s *SessionService) Adopt(sess *models.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.CashierID] = sess
}

// Evict drops the in-memory session backed by recordID, if present.
// Returns whether a session was removed.
func (s *SessionService) Evict(cashierID, recordID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[cashierID]
	if !ok || sess.RecordID != recordID {
		return false
	}
	delete(s.sessions, cashierID)
	return true
}

func (s *SessionService) publishSessionChanged(sess *models.Session, restored bool) {
	s.bus.Publish(events.Event{
		Type: events.SessionChanged,
		At:   time.Now(),
		Payload: events.SessionChangedPayload{
			CashierID:   sess.CashierID,
			CashierName: sess.CashierName,
			Status:      sess.Status,
			Restored:    restored,
		},
	})
}

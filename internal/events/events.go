// Package events defines the domain events the session core emits and the
// fan-out that delivers them to subscribers. Delivery is best-effort and
// at-most-once; publishers never block on subscribers.
package events

import (
	"time"

	"github.com/retailpoint/pos-backend/internal/models"
)

// Type names a domain event.
type Type string

const (
	SessionChanged    Type = "session.changed"
	MovementAdded     Type = "movement.added"
	PeripheralChanged Type = "peripheral.changed"
)

// Event is a typed envelope carrying one of the payload structs below.
type Event struct {
	Type    Type      `json:"type"`
	At      time.Time `json:"at"`
	Payload any       `json:"payload"`
}

// SessionChangedPayload accompanies open, restore and close transitions.
type SessionChangedPayload struct {
	CashierID   string `json:"cashier_id"`
	CashierName string `json:"cashier_name"`
	Status      string `json:"status"`
	Restored    bool   `json:"restored,omitempty"`

	// Close-only summary fields.
	DurationSeconds int64 `json:"duration_seconds,omitempty"`
	CountedAmount   int64 `json:"counted_amount,omitempty"`
	ExpectedAmount  int64 `json:"expected_amount,omitempty"`
	Variance        int64 `json:"variance,omitempty"`
}

// MovementAddedPayload carries the movement plus the running totals the
// register UI shows live.
type MovementAddedPayload struct {
	CashierID string          `json:"cashier_id"`
	Movement  models.Movement `json:"movement"`
	Balance   int64           `json:"balance"`
	Variance  int64           `json:"variance"` // current minus expected, so far
}

// PeripheralChangedPayload announces display ownership transfer. The
// previous owner is informational; it learns of the loss through its own
// subscription, not a direct notification.
type PeripheralChangedPayload struct {
	Owned         bool   `json:"owned"`
	Owner         string `json:"owner,omitempty"`
	OwnerName     string `json:"owner_name,omitempty"`
	PreviousOwner string `json:"previous_owner,omitempty"`
	Port          string `json:"port,omitempty"`
}

// Publisher is the sink the core pushes events into.
type Publisher interface {
	Publish(ev Event)
}

package models

import (
	"time"
)

// Movement types
const (
	MovementIn  = "in"
	MovementOut = "out"
)

// Movement represents a single cash-in or cash-out event against a drawer.
// Movements are immutable once created; corrections are new offsetting
// movements, never updates.
type Movement struct {
	ID        string    `json:"id" db:"id"`
	SessionID string    `json:"session_id" db:"session_id"`
	CashierID string    `json:"cashier_id" db:"cashier_id"`
	Type      string    `json:"type" db:"type"`     // in or out
	Amount    int64     `json:"amount" db:"amount"` // in cents, always positive
	Reason    string    `json:"reason" db:"reason"`
	Notes     string    `json:"notes,omitempty" db:"notes"`
	CreatedBy string    `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Signed returns the amount with its direction applied: positive for "in",
// negative for "out".
func (m *Movement) Signed() int64 {
	if m.Type == MovementOut {
		return -m.Amount
	}
	return m.Amount
}

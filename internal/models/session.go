package models

import (
	"time"
)

// Session statuses
const (
	SessionActive = "active"
	SessionClosed = "closed"
)

// RecentMovementsCap bounds the in-memory movement ring per drawer. The
// ledger store keeps the full history; the ring only has to cover what the
// register UI shows.
const RecentMovementsCap = 50

// Drawer is the cash-holding sub-record of a session.
type Drawer struct {
	OpeningAmount  int64 `json:"opening_amount"`  // in cents, immutable after open
	CurrentAmount  int64 `json:"current_amount"`  // in cents
	ExpectedAmount int64 `json:"expected_amount"` // in cents, derived

	// FoldBase is the balance already accounted for by movements evicted
	// from the ring. Starts at OpeningAmount; every trimmed movement folds
	// its signed amount into it, so FoldBase + sum(ring) is always exact.
	FoldBase int64 `json:"-"`

	Denominations map[string]int `json:"denominations,omitempty"` // opaque, caller-supplied
	CountMethod   string         `json:"count_method,omitempty"`
	Notes         string         `json:"notes,omitempty"`
	OpenedAt      time.Time      `json:"opened_at"`

	// RecentMovements is newest-first and capped at RecentMovementsCap.
	RecentMovements []Movement `json:"recent_movements"`
}

// FoldExpected recomputes the expected balance from the whole in-memory
// ring rather than adjusting a cached value, so any earlier drift
// self-corrects on the next read.
func (d *Drawer) FoldExpected() int64 {
	total := d.FoldBase
	for i := range d.RecentMovements {
		total += d.RecentMovements[i].Signed()
	}
	return total
}

// PeripheralBinding records a session's relationship to the shared customer
// display.
type PeripheralBinding struct {
	Requested bool   `json:"requested"`
	Connected bool   `json:"connected"`
	Port      string `json:"port,omitempty"`
	LastError string `json:"last_error,omitempty"`
}

// Session is the record of one cashier's continuous working period, from
// drawer open to drawer close. At most one active session exists per
// cashier at any time.
type Session struct {
	CashierID   string `json:"cashier_id"`
	CashierName string `json:"cashier_name"`
	Status      string `json:"status"`

	// RecordID is the durable ledger-store id backing this session.
	RecordID string `json:"record_id"`

	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`

	Drawer     Drawer            `json:"drawer"`
	Peripheral PeripheralBinding `json:"peripheral"`

	// Closing snapshot, set exactly once by close.
	CountedAmount    int64 `json:"counted_amount,omitempty"`
	Variance         int64 `json:"variance,omitempty"`
	VarianceAccepted bool  `json:"variance_accepted,omitempty"`

	// Restored marks a session rehydrated from durable history after a
	// restart; cleared by the cashier's first keep-alive.
	Restored   bool       `json:"restored,omitempty"`
	RestoredAt *time.Time `json:"restored_at,omitempty"`
}

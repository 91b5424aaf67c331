package ledger

import (
	"context"
	"time"
)

// SessionRecord is the durable form of a cashier session.
type SessionRecord struct {
	ID            string         `json:"id" db:"id"`
	CashierID     string         `json:"cashier_id" db:"cashier_id"`
	CashierName   string         `json:"cashier_name" db:"cashier_name"`
	Status        string         `json:"status" db:"status"`                 // open or closed
	OpeningAmount int64          `json:"opening_amount" db:"opening_amount"` // in cents
	Denominations map[string]int `json:"denominations,omitempty" db:"denominations"`
	CountMethod   string         `json:"count_method" db:"count_method"`
	Notes         string         `json:"notes" db:"notes"`
	OpenedAt      time.Time      `json:"opened_at" db:"opened_at"`
	ClosedAt      *time.Time     `json:"closed_at,omitempty" db:"closed_at"`

	CountedAmount    int64 `json:"counted_amount" db:"counted_amount"`
	ExpectedAmount   int64 `json:"expected_amount" db:"expected_amount"`
	Variance         int64 `json:"variance" db:"variance"`
	VarianceAccepted bool  `json:"variance_accepted" db:"variance_accepted"`
}

// MovementRecord is the durable form of a drawer movement. Append-only:
// records are never updated or deleted.
type MovementRecord struct {
	ID        string    `json:"id" db:"id"`
	SessionID string    `json:"session_id" db:"session_id"`
	CashierID string    `json:"cashier_id" db:"cashier_id"`
	Type      string    `json:"type" db:"type"`
	Amount    int64     `json:"amount" db:"amount"` // in cents
	Reason    string    `json:"reason" db:"reason"`
	Notes     string    `json:"notes" db:"notes"`
	CreatedBy string    `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Closure carries the terminal fields written when a session is closed.
type Closure struct {
	CountedAmount    int64
	ExpectedAmount   int64
	Variance         int64
	VarianceAccepted bool
	Notes            string
	ClosedAt         time.Time
}

// Store is the durable record of cash movements and session snapshots. It
// is write-through during normal operation; reads happen only at startup
// restoration and from reporting.
type Store interface {
	CreateSession(ctx context.Context, rec *SessionRecord) error
	CreateMovement(ctx context.Context, rec *MovementRecord) error
	FindSession(ctx context.Context, id string) (*SessionRecord, error)
	MovementsBySession(ctx context.Context, sessionID string) ([]MovementRecord, error)
	OpenSessions(ctx context.Context) ([]SessionRecord, error)
	OpenSessionsBefore(ctx context.Context, cutoff time.Time) ([]SessionRecord, error)
	CloseSession(ctx context.Context, id string, c Closure) error
}

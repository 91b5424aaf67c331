package services

import (
	"fmt"
	"time"
)

// ValidationError reports bad caller input. It changes no state.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NotFoundError reports an operation targeting a cashier with no active
// session.
type NotFoundError struct {
	CashierID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no active session for cashier %s", e.CashierID)
}

// InsufficientFundsError reports an "out" movement that would drive the
// drawer balance negative. Carries enough detail to tell the cashier how
// far over the balance they are.
type InsufficientFundsError struct {
	Requested int64 // in cents
	Available int64 // in cents
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("movement of %d exceeds drawer balance %d by %d", e.Requested, e.Available, e.Shortfall())
}

func (e *InsufficientFundsError) Shortfall() int64 {
	return e.Requested - e.Available
}

// ResourceBusyError reports that the customer display is held by another
// cashier, identifying the holder and since when.
type ResourceBusyError struct {
	Owner     string
	OwnerName string
	HeldSince time.Time
}

func (e *ResourceBusyError) Error() string {
	return fmt.Sprintf("display held by %s since %s", e.Owner, e.HeldSince.Format("15:04"))
}

// PersistenceError reports a durable-store failure. Only terminal
// operations surface it; non-terminal operations log and continue.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// PeripheralError reports a display driver failure. Never fatal to session
// or ledger operations; recorded on the session's peripheral binding.
type PeripheralError struct {
	Op   string
	Port string
	Err  error
}

func (e *PeripheralError) Error() string {
	return fmt.Sprintf("display %s on %s failed: %v", e.Op, e.Port, e.Err)
}

func (e *PeripheralError) Unwrap() error { return e.Err }

package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// PostgresStore persists sessions and movements in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateSession(ctx context.Context, rec *SessionRecord) error {
	denoms, err := json.Marshal(rec.Denominations)
	if err != nil {
		return fmt.Errorf("marshal denominations: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cashier_sessions (id, cashier_id, cashier_name, status, opening_amount, denominations, count_method, notes, opened_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.CashierID, rec.CashierName, rec.Status, rec.OpeningAmount, denoms, rec.CountMethod, rec.Notes, rec.OpenedAt)
	return err
}

func (s *PostgresStore) CreateMovement(ctx context.Context, rec *MovementRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cash_movements (id, session_id, cashier_id, type, amount, reason, notes, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.SessionID, rec.CashierID, rec.Type, rec.Amount, rec.Reason, rec.Notes, rec.CreatedBy, rec.CreatedAt)
	return err
}

func (s *PostgresStore) FindSession(ctx context.Context, id string) (*SessionRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, cashier_id, cashier_name, status, opening_amount, denominations, count_method, notes, opened_at, closed_at,
		       counted_amount, expected_amount, variance, variance_accepted
		FROM cashier_sessions
		WHERE id = $1`, id)
	return scanSession(row)
}

func (s *PostgresStore) MovementsBySession(ctx context.Context, sessionID string) ([]MovementRecord, error) {
	return s.queryMovements(ctx, `
		SELECT id, session_id, cashier_id, type, amount, reason, notes, created_by, created_at
		FROM cash_movements
		WHERE session_id = $1
		ORDER BY created_at ASC`, sessionID)
}

func (s *PostgresStore) OpenSessions(ctx context.Context) ([]SessionRecord, error) {
	return s.querySessions(ctx, `
		SELECT id, cashier_id, cashier_name, status, opening_amount, denominations, count_method, notes, opened_at, closed_at,
		       counted_amount, expected_amount, variance, variance_accepted
		FROM cashier_sessions
		WHERE status = 'open'
		ORDER BY opened_at ASC`)
}

func (s *PostgresStore) OpenSessionsBefore(ctx context.Context, cutoff time.Time) ([]SessionRecord, error) {
	return s.querySessions(ctx, `
		SELECT id, cashier_id, cashier_name, status, opening_amount, denominations, count_method, notes, opened_at, closed_at,
		       counted_amount, expected_amount, variance, variance_accepted
		FROM cashier_sessions
		WHERE status = 'open' AND opened_at < $1
		ORDER BY opened_at ASC`, cutoff)
}

func (s *PostgresStore) CloseSession(ctx context.Context, id string, c Closure) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE cashier_sessions
		SET status = 'closed', closed_at = $1, counted_amount = $2, expected_amount = $3, variance = $4, variance_accepted = $5,
		    notes = CASE WHEN $6 = '' THEN notes ELSE $6 END
		WHERE id = $7 AND status = 'open'`,
		c.ClosedAt, c.CountedAmount, c.ExpectedAmount, c.Variance, c.VarianceAccepted, c.Notes, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return fmt.Errorf("session %s not open", id)
	}
	return nil
}

func (s *PostgresStore) queryMovements(ctx context.Context, query string, args ...any) ([]MovementRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []MovementRecord
	for rows.Next() {
		var rec MovementRecord
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.CashierID, &rec.Type, &rec.Amount, &rec.Reason, &rec.Notes, &rec.CreatedBy, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *PostgresStore) querySessions(ctx context.Context, query string, args ...any) ([]SessionRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*SessionRecord, error) {
	var rec SessionRecord
	var denoms []byte
	var closedAt sql.NullTime
	err := row.Scan(&rec.ID, &rec.CashierID, &rec.CashierName, &rec.Status, &rec.OpeningAmount, &denoms, &rec.CountMethod, &rec.Notes,
		&rec.OpenedAt, &closedAt, &rec.CountedAmount, &rec.ExpectedAmount, &rec.Variance, &rec.VarianceAccepted)
	if err != nil {
		return nil, err
	}
	if closedAt.Valid {
		rec.ClosedAt = &closedAt.Time
	}
	if len(denoms) > 0 {
		if err := json.Unmarshal(denoms, &rec.Denominations); err != nil {
			return nil, fmt.Errorf("unmarshal denominations: %w", err)
		}
	}
	return &rec, nil
}

package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionColumns() []string {
	return []string{"id", "cashier_id", "cashier_name", "status", "opening_amount", "denominations", "count_method", "notes",
		"opened_at", "closed_at", "counted_amount", "expected_amount", "variance", "variance_accepted"}
}

func TestPostgresStore_CreateSession(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)
	opened := time.Now()

	mock.ExpectExec("INSERT INTO cashier_sessions").
		WithArgs("s1", "cashier-1", "Ana", "open", int64(10000), []byte(`{"50.00":2}`), "manual", "", opened).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = store.CreateSession(context.Background(), &SessionRecord{
		ID:            "s1",
		CashierID:     "cashier-1",
		CashierName:   "Ana",
		Status:        "open",
		OpeningAmount: 10000,
		Denominations: map[string]int{"50.00": 2},
		CountMethod:   "manual",
		OpenedAt:      opened,
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateMovement(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)
	created := time.Now()

	mock.ExpectExec("INSERT INTO cash_movements").
		WithArgs("m1", "s1", "cashier-1", "in", int64(2550), "cash sale", "", "Ana", created).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = store.CreateMovement(context.Background(), &MovementRecord{
		ID:        "m1",
		SessionID: "s1",
		CashierID: "cashier-1",
		Type:      "in",
		Amount:    2550,
		Reason:    "cash sale",
		CreatedBy: "Ana",
		CreatedAt: created,
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_OpenSessions(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)
	opened := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM cashier_sessions WHERE status = 'open'").
		WillReturnRows(sqlmock.NewRows(sessionColumns()).
			AddRow("s1", "cashier-1", "Ana", "open", 10000, []byte(`{"20.00":5}`), "manual", "", opened, nil, 0, 0, 0, false))

	records, err := store.OpenSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "s1", records[0].ID)
	assert.Equal(t, int64(10000), records[0].OpeningAmount)
	assert.Equal(t, map[string]int{"20.00": 5}, records[0].Denominations)
	assert.Nil(t, records[0].ClosedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MovementsBySession(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)
	created := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM cash_movements WHERE session_id = \\$1 ORDER BY created_at ASC").
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "session_id", "cashier_id", "type", "amount", "reason", "notes", "created_by", "created_at"}).
			AddRow("m1", "s1", "cashier-1", "in", 5000, "sale", "", "Ana", created).
			AddRow("m2", "s1", "cashier-1", "out", 1000, "change", "", "Ana", created.Add(time.Minute)))

	records, err := store.MovementsBySession(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "in", records[0].Type)
	assert.Equal(t, int64(1000), records[1].Amount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CloseSession(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)
	closedAt := time.Now()
	closure := Closure{
		CountedAmount:    11500,
		ExpectedAmount:   11550,
		Variance:         -50,
		VarianceAccepted: true,
		Notes:            "evening count",
		ClosedAt:         closedAt,
	}

	t.Run("successful close", func(t *testing.T) {
		mock.ExpectExec("UPDATE cashier_sessions").
			WithArgs(closedAt, int64(11500), int64(11550), int64(-50), true, "evening count", "s1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := store.CloseSession(context.Background(), "s1", closure)
		assert.NoError(t, err)
	})

	t.Run("already closed", func(t *testing.T) {
		mock.ExpectExec("UPDATE cashier_sessions").
			WithArgs(closedAt, int64(11500), int64(11550), int64(-50), true, "evening count", "s1").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := store.CloseSession(context.Background(), "s1", closure)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not open")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

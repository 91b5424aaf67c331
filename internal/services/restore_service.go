package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/retailpoint/pos-backend/internal/events"
	"github.com/retailpoint/pos-backend/internal/ledger"
	"github.com/retailpoint/pos-backend/internal/models"
)

// RestoreService rehydrates in-memory session state from durable history
// after a process restart. It runs before the session manager accepts any
// client-initiated opens for sessions that might already exist durably.
type RestoreService struct {
	store    ledger.Store
	sessions *SessionService
	bus      events.Publisher

	mu       sync.Mutex
	done     bool
	restored int
}

func NewRestoreService(store ledger.Store, sessions *SessionService, bus events.Publisher) *RestoreService {
	return &RestoreService{
		store:    store,
		sessions: sessions,
		bus:      bus,
	}
}

// RestoreAll replays every durable session left "open" by an unclean
// shutdown back into memory. Idempotent: a second call is a no-op
// returning the first run's count. A failure restoring one session is
// logged and does not abort the others.
func (r *RestoreService) RestoreAll(ctx context.Context) (int, error) {
	r.mu.Lock()
	if r.done {
		count := r.restored
		r.mu.Unlock()
		return count, nil
	}
	r.done = true
	r.mu.Unlock()

	records, err := r.store.OpenSessions(ctx)
	if err != nil {
		// A failed scan does not use up the run; a supervisor-driven
		// retry can still rehydrate.
		r.mu.Lock()
		r.done = false
		r.mu.Unlock()
		return 0, &PersistenceError{Op: "scan open sessions", Err: err}
	}

	count := 0
	for i := range records {
		sess, err := r.rebuild(ctx, &records[i])
		if err != nil {
			log.Printf("[RESTORE] Skipping session %s for %s: %v", records[i].ID, records[i].CashierID, err)
			continue
		}

		r.sessions.Adopt(sess)
		r.bus.Publish(events.Event{
			Type: events.SessionChanged,
			At:   time.Now(),
			Payload: events.SessionChangedPayload{
				CashierID:   sess.CashierID,
				CashierName: sess.CashierName,
				Status:      sess.Status,
				Restored:    true,
			},
		})
		count++
		log.Printf("[RESTORE] Restored session for %s: balance %d across %d movements",
			sess.CashierID, sess.Drawer.CurrentAmount, len(sess.Drawer.RecentMovements))
	}

	r.mu.Lock()
	r.restored = count
	r.mu.Unlock()

	log.Printf("[RESTORE] Restoration complete: %d of %d open sessions restored", count, len(records))
	return count, nil
}

// rebuild folds a session's full durable movement history into an
// in-memory session flagged restored.
func (r *RestoreService) rebuild(ctx context.Context, rec *ledger.SessionRecord) (*models.Session, error) {
	movements, err := r.store.MovementsBySession(ctx, rec.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch movements: %w", err)
	}

	balance := rec.OpeningAmount
	for i := range movements {
		m := models.Movement(movements[i])
		balance += m.Signed()
	}

	// Newest first, then keep only what the ring holds; the evicted tail
	// folds into the base so the recomputed expected amount stays exact.
	sort.Slice(movements, func(i, j int) bool {
		return movements[i].CreatedAt.After(movements[j].CreatedAt)
	})
	ring := make([]models.Movement, 0, models.RecentMovementsCap)
	for i := range movements {
		if i >= models.RecentMovementsCap {
			break
		}
		ring = append(ring, models.Movement(movements[i]))
	}
	foldBase := rec.OpeningAmount
	for i := models.RecentMovementsCap; i < len(movements); i++ {
		m := models.Movement(movements[i])
		foldBase += m.Signed()
	}

	now := time.Now()
	return &models.Session{
		CashierID:   rec.CashierID,
		CashierName: rec.CashierName,
		Status:      models.SessionActive,
		RecordID:    rec.ID,
		StartedAt:   rec.OpenedAt,
		Drawer: models.Drawer{
			OpeningAmount:   rec.OpeningAmount,
			CurrentAmount:   balance,
			ExpectedAmount:  balance,
			FoldBase:        foldBase,
			Denominations:   rec.Denominations,
			CountMethod:     rec.CountMethod,
			Notes:           rec.Notes,
			OpenedAt:        rec.OpenedAt,
			RecentMovements: ring,
		},
		Restored:   true,
		RestoredAt: &now,
	}, nil
}

// CleanupOrphaned force-closes durable sessions still open past maxAge
// with zero variance and an explanatory note, for shifts abandoned without
// a proper close. Independent of startup restoration; invoked on an
// operator-controlled schedule.
func (r *RestoreService) CleanupOrphaned(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	records, err := r.store.OpenSessionsBefore(ctx, cutoff)
	if err != nil {
		return 0, &PersistenceError{Op: "scan orphaned sessions", Err: err}
	}

	closed := 0
	for i := range records {
		rec := &records[i]

		movements, err := r.store.MovementsBySession(ctx, rec.ID)
		if err != nil {
			log.Printf("[RESTORE] Cannot fold orphaned session %s: %v", rec.ID, err)
			continue
		}
		expected := rec.OpeningAmount
		for j := range movements {
			m := models.Movement(movements[j])
			expected += m.Signed()
		}

		note := fmt.Sprintf("auto-closed: shift abandoned, open since %s", rec.OpenedAt.Format(time.RFC3339))
		err = r.store.CloseSession(ctx, rec.ID, ledger.Closure{
			CountedAmount:    expected,
			ExpectedAmount:   expected,
			Variance:         0,
			VarianceAccepted: true,
			Notes:            note,
			ClosedAt:         time.Now(),
		})
		if err != nil {
			log.Printf("[RESTORE] Failed to close orphaned session %s: %v", rec.ID, err)
			continue
		}

		// A restored copy may still be live in memory; drop it so the map
		// never disagrees with the durable closure.
		r.sessions.Evict(rec.CashierID, rec.ID)
		closed++
		log.Printf("[RESTORE] Auto-closed orphaned session %s for %s", rec.ID, rec.CashierID)
	}

	return closed, nil
}

package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/png"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/retailpoint/pos-backend/internal/ledger"
	"github.com/retailpoint/pos-backend/internal/models"
	"github.com/skip2/go-qrcode"
)

// ClosingSlip is the printable close-of-shift summary. The QR encodes the
// slip so an auditor can scan a printed copy back into the office tooling.
type ClosingSlip struct {
	SessionID      string    `json:"session_id"`
	CashierID      string    `json:"cashier_id"`
	CashierName    string    `json:"cashier_name"`
	OpenedAt       time.Time `json:"opened_at"`
	ClosedAt       time.Time `json:"closed_at,omitempty"`
	OpeningAmount  int64     `json:"opening_amount"`
	CountedAmount  int64     `json:"counted_amount"`
	ExpectedAmount int64     `json:"expected_amount"`
	Variance       int64     `json:"variance"`
	MovementsIn    int64     `json:"movements_in"`
	MovementsOut   int64     `json:"movements_out"`
	MovementCount  int       `json:"movement_count"`
}

// ReportService produces closing slips from the durable ledger. Reads go
// against the store, not the live session map: slips cover closed shifts.
type ReportService struct {
	store ledger.Store
	redis *redis.Client
}

func NewReportService(store ledger.Store, redis *redis.Client) *ReportService {
	return &ReportService{
		store: store,
		redis: redis,
	}
}

// ClosingSlip builds the summary for a session and renders its QR image
// as base64 PNG. Slips are cached in redis for a day so re-prints do not
// re-fold history.
func (s *ReportService) ClosingSlip(ctx context.Context, sessionID string) (*ClosingSlip, string, error) {
	if cached, image, ok := s.cachedSlip(ctx, sessionID); ok {
		return cached, image, nil
	}

	rec, err := s.store.FindSession(ctx, sessionID)
	if err != nil {
		return nil, "", fmt.Errorf("session %s not found: %w", sessionID, err)
	}

	movements, err := s.store.MovementsBySession(ctx, sessionID)
	if err != nil {
		return nil, "", err
	}

	slip := &ClosingSlip{
		SessionID:      rec.ID,
		CashierID:      rec.CashierID,
		CashierName:    rec.CashierName,
		OpenedAt:       rec.OpenedAt,
		OpeningAmount:  rec.OpeningAmount,
		CountedAmount:  rec.CountedAmount,
		ExpectedAmount: rec.ExpectedAmount,
		Variance:       rec.Variance,
		MovementCount:  len(movements),
	}
	if rec.ClosedAt != nil {
		slip.ClosedAt = *rec.ClosedAt
	}
	for i := range movements {
		m := models.Movement(movements[i])
		if m.Type == models.MovementIn {
			slip.MovementsIn += m.Amount
		} else {
			slip.MovementsOut += m.Amount
		}
	}

	image, err := s.renderQR(slip)
	if err != nil {
		return nil, "", err
	}

	s.cacheSlip(ctx, slip, image)
	return slip, image, nil
}

func (s *ReportService) renderQR(slip *ClosingSlip) (string, error) {
	payload, err := json.Marshal(slip)
	if err != nil {
		return "", err
	}

	qr, err := qrcode.New(base64.URLEncoding.EncodeToString(payload), qrcode.Medium)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(256)); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

type cachedSlip struct {
	Slip  *ClosingSlip `json:"slip"`
	Image string       `json:"image"`
}

func (s *ReportService) cachedSlip(ctx context.Context, sessionID string) (*ClosingSlip, string, bool) {
	if s.redis == nil {
		return nil, "", false
	}

	data, err := s.redis.Get(ctx, slipKey(sessionID)).Bytes()
	if err != nil {
		return nil, "", false
	}

	var entry cachedSlip
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, "", false
	}
	return entry.Slip, entry.Image, true
}

func (s *ReportService) cacheSlip(ctx context.Context, slip *ClosingSlip, image string) {
	if s.redis == nil {
		return
	}

	data, err := json.Marshal(cachedSlip{Slip: slip, Image: image})
	if err != nil {
		return
	}
	s.redis.Set(ctx, slipKey(slip.SessionID), data, 24*time.Hour)
}

func slipKey(sessionID string) string {
	return fmt.Sprintf("slip:%s", sessionID)
}

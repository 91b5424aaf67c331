package services

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/retailpoint/pos-backend/internal/display"
	"github.com/retailpoint/pos-backend/internal/events"
	"github.com/retailpoint/pos-backend/internal/ledger"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateSession(ctx context.Context, rec *ledger.SessionRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockStore) CreateMovement(ctx context.Context, rec *ledger.MovementRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockStore) FindSession(ctx context.Context, id string) (*ledger.SessionRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.SessionRecord), args.Error(1)
}

func (m *MockStore) MovementsBySession(ctx context.Context, sessionID string) ([]ledger.MovementRecord, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ledger.MovementRecord), args.Error(1)
}

func (m *MockStore) OpenSessions(ctx context.Context) ([]ledger.SessionRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ledger.SessionRecord), args.Error(1)
}

func (m *MockStore) OpenSessionsBefore(ctx context.Context, cutoff time.Time) ([]ledger.SessionRecord, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ledger.SessionRecord), args.Error(1)
}

func (m *MockStore) CloseSession(ctx context.Context, id string, c ledger.Closure) error {
	args := m.Called(ctx, id, c)
	return args.Error(0)
}

type MockDriver struct {
	mock.Mock
}

func (m *MockDriver) Connect(port string, cfg display.Config) error {
	args := m.Called(port, cfg)
	return args.Error(0)
}

func (m *MockDriver) Write(line1, line2 string) error {
	args := m.Called(line1, line2)
	return args.Error(0)
}

func (m *MockDriver) Disconnect() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockDriver) Status() display.Status {
	args := m.Called()
	return args.Get(0).(display.Status)
}

// recordingBus captures published events synchronously for assertions.
type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(ev events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
}

func (b *recordingBus) byType(t events.Type) []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []events.Event
	for _, ev := range b.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

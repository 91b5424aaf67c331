package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusDeliversToAllSubscribers(t *testing.T) {
	bus := NewBus()

	got1 := make(chan Event, 1)
	got2 := make(chan Event, 1)
	bus.Subscribe(func(ev Event) { got1 <- ev })
	bus.Subscribe(func(ev Event) { got2 <- ev })

	ev := Event{Type: MovementAdded, At: time.Now(), Payload: MovementAddedPayload{CashierID: "c1", Balance: 12550}}
	bus.Publish(ev)

	for _, ch := range []chan Event{got1, got2} {
		select {
		case received := <-ch:
			assert.Equal(t, MovementAdded, received.Type)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestBusPublishDoesNotBlockOnSlowSubscriber(t *testing.T) {
	bus := NewBus()

	release := make(chan struct{})
	bus.Subscribe(func(Event) { <-release })

	done := make(chan struct{})
	go func() {
		bus.Publish(Event{Type: SessionChanged, At: time.Now()})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on subscriber")
	}
	close(release)
}

func TestRedisBridgeRelaysEnvelope(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	bridge := NewRedisBridge(rdb, "")

	ev := Event{
		Type: SessionChanged,
		At:   time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Payload: SessionChangedPayload{
			CashierID: "c1",
			Status:    "active",
		},
	}
	payload, err := json.Marshal(ev)
	require.NoError(t, err)

	mock.ExpectPublish(DefaultChannel, payload).SetVal(1)

	bridge.Handle(ev)
	assert.NoError(t, mock.ExpectationsWereMet())
}

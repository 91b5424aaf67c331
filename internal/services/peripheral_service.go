package services

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/retailpoint/pos-backend/internal/config"
	"github.com/retailpoint/pos-backend/internal/display"
	"github.com/retailpoint/pos-backend/internal/events"
)

// PeripheralStatus describes current display ownership.
type PeripheralStatus struct {
	Owned     bool           `json:"owned"`
	Owner     string         `json:"owner,omitempty"`
	OwnerName string         `json:"owner_name,omitempty"`
	Port      string         `json:"port,omitempty"`
	HeldSince time.Time      `json:"held_since,omitempty"`
	Driver    display.Status `json:"driver"`
}

// PeripheralService arbitrates exclusive ownership of the single shared
// customer display. The ownership decision is made synchronously under one
// lock; the physical device I/O that makes the display reflect a transfer
// runs detached, so claiming the device is never stalled by a multi-second
// farewell animation.
type PeripheralService struct {
	driver display.Driver
	bus    events.Publisher
	cfg    *config.DisplayConfig

	mu        sync.Mutex
	owner     string
	ownerName string
	port      string
	since     time.Time
}

func NewPeripheralService(driver display.Driver, bus events.Publisher, cfg *config.DisplayConfig) *PeripheralService {
	if cfg == nil {
		cfg = config.LoadDisplayConfig()
	}
	return &PeripheralService{
		driver: driver,
		bus:    bus,
		cfg:    cfg,
	}
}

// Assign gives the display to cashierID. Re-assignment by the current
// owner is a refresh, possibly to a different port. Held by anyone else it
// fails with ResourceBusyError identifying the holder.
func (ps *PeripheralService) Assign(cashierID, cashierName, port string) error {
	ps.mu.Lock()

	if ps.owner != "" && ps.owner != cashierID {
		err := &ResourceBusyError{Owner: ps.owner, OwnerName: ps.ownerName, HeldSince: ps.since}
		ps.mu.Unlock()
		return err
	}

	if err := ps.driver.Connect(port, display.Config{BaudRate: ps.cfg.BaudRate, Columns: ps.cfg.Columns}); err != nil {
		ps.mu.Unlock()
		return &PeripheralError{Op: "connect", Port: port, Err: err}
	}

	previous := ps.owner
	ps.owner = cashierID
	ps.ownerName = cashierName
	ps.port = port
	if previous != cashierID {
		ps.since = time.Now()
	}
	ps.mu.Unlock()

	ps.bus.Publish(events.Event{
		Type: events.PeripheralChanged,
		At:   time.Now(),
		Payload: events.PeripheralChangedPayload{
			Owned:         true,
			Owner:         cashierID,
			OwnerName:     cashierName,
			PreviousOwner: previous,
			Port:          port,
		},
	})

	// Greeting is cosmetic: best effort, never raised to the caller.
	go func() {
		greeting := fmt.Sprintf("HELLO %s", cashierName)
		if err := ps.driver.Write(ps.cfg.WelcomeLine1, greeting); err != nil {
			log.Printf("[PERIPHERAL] Greeting write failed for %s: %v", cashierID, err)
		}
	}()

	return nil
}

// Release gives up the display. A no-op unless cashierID is the current
// owner. Ownership clears and the event publishes synchronously so the
// next Assign is never blocked by device I/O; the physical handoff runs
// detached afterwards.
func (ps *PeripheralService) Release(cashierID string) {
	ps.mu.Lock()
	if ps.owner != cashierID {
		ps.mu.Unlock()
		return
	}

	previous := ps.owner
	port := ps.port
	ps.owner = ""
	ps.ownerName = ""
	ps.port = ""
	ps.since = time.Time{}
	ps.mu.Unlock()

	ps.bus.Publish(events.Event{
		Type: events.PeripheralChanged,
		At:   time.Now(),
		Payload: events.PeripheralChangedPayload{
			Owned:         false,
			PreviousOwner: previous,
		},
	})

	go ps.handoff(port)
}

// handoff plays the farewell sequence and leaves the display disconnected.
// Every step is best effort; whatever fails, the sequence ends with an
// unconditional disconnect attempt, because connected-but-unowned is the
// one state to avoid.
func (ps *PeripheralService) handoff(port string) {
	defer func() {
		if err := ps.driver.Disconnect(); err != nil {
			log.Printf("[PERIPHERAL] Final disconnect failed: %v", err)
		}
	}()

	if err := ps.driver.Write(ps.cfg.FarewellLine1, ps.cfg.FarewellLine2); err != nil {
		log.Printf("[PERIPHERAL] Farewell write failed: %v", err)
	}
	if err := ps.driver.Disconnect(); err != nil {
		log.Printf("[PERIPHERAL] Disconnect failed during handoff: %v", err)
	}

	time.Sleep(ps.cfg.HandoffPause)

	if err := ps.driver.Connect(port, display.Config{BaudRate: ps.cfg.BaudRate, Columns: ps.cfg.Columns}); err != nil {
		log.Printf("[PERIPHERAL] Reconnect for welcome screen failed: %v", err)
		return
	}
	if err := ps.driver.Write(ps.cfg.WelcomeLine1, ps.cfg.WelcomeLine2); err != nil {
		log.Printf("[PERIPHERAL] Welcome write failed: %v", err)
	}

	time.Sleep(ps.cfg.HandoffPause)
}

// Status reports current ownership and the driver's connection state.
func (ps *PeripheralService) Status() PeripheralStatus {
	ps.mu.Lock()
	status := PeripheralStatus{
		Owned:     ps.owner != "",
		Owner:     ps.owner,
		OwnerName: ps.ownerName,
		Port:      ps.port,
		HeldSince: ps.since,
	}
	ps.mu.Unlock()

	status.Driver = ps.driver.Status()
	return status
}

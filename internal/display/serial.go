package display

import (
	"fmt"
	"sync"

	serial "go.bug.st/serial.v1"
)

const (
	defaultBaudRate = 9600
	defaultColumns  = 20

	// Clear-display control byte understood by the common ESC/POS style
	// line displays.
	clearDisplay = "\x0C"
)

// SerialDisplay implements Driver over a serial line display.
type SerialDisplay struct {
	mu       sync.Mutex
	port     serial.Port
	portName string
	cfg      Config
}

func NewSerialDisplay() *SerialDisplay {
	return &SerialDisplay{}
}

func (d *SerialDisplay) Connect(portName string, cfg Config) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if cfg.BaudRate == 0 {
		cfg.BaudRate = defaultBaudRate
	}
	if cfg.Columns == 0 {
		cfg.Columns = defaultColumns
	}

	// Reconnecting to a new port drops the old connection first.
	if d.port != nil {
		d.port.Close()
		d.port = nil
	}

	port, err := serial.Open(portName, &serial.Mode{BaudRate: cfg.BaudRate})
	if err != nil {
		return fmt.Errorf("open serial port %s: %w", portName, err)
	}

	d.port = port
	d.portName = portName
	d.cfg = cfg
	return nil
}

func (d *SerialDisplay) Write(line1, line2 string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.port == nil {
		return fmt.Errorf("display not connected")
	}

	payload := clearDisplay + padLine(line1, d.cfg.Columns) + padLine(line2, d.cfg.Columns)
	if _, err := d.port.Write([]byte(payload)); err != nil {
		return fmt.Errorf("write to display on %s: %w", d.portName, err)
	}
	return nil
}

func (d *SerialDisplay) Disconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.port == nil {
		return nil
	}
	err := d.port.Close()
	d.port = nil
	d.portName = ""
	return err
}

func (d *SerialDisplay) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Status{Connected: d.port != nil, Port: d.portName}
}

// padLine fits text to the display width: truncated if long, space-padded
// if short, so successive writes fully overwrite the previous frame.
func padLine(text string, columns int) string {
	runes := []rune(text)
	if len(runes) > columns {
		return string(runes[:columns])
	}
	for len(runes) < columns {
		runes = append(runes, ' ')
	}
	return string(runes)
}

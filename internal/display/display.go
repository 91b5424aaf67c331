// Package display drives the shared customer-facing line display. The
// device is a two-line character display on a serial port; ownership
// arbitration lives elsewhere, this package only talks the wire protocol.
package display

// Config holds the device parameters for a connection.
type Config struct {
	BaudRate int
	Columns  int
}

// Status is a point-in-time snapshot of the driver's connection.
type Status struct {
	Connected bool   `json:"connected"`
	Port      string `json:"port,omitempty"`
}

// Driver is the narrow capability the rest of the system sees: connect,
// write two lines, disconnect, report status.
type Driver interface {
	Connect(port string, cfg Config) error
	Write(line1, line2 string) error
	Disconnect() error
	Status() Status
}

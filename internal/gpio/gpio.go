// Package gpio provides GPIO line access with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// Fakes allow the rest of the system to run and be tested without hardware.
package gpio

// Line reads a single binary input line.
type Line interface {
	// Level returns the current logical level of the line (0 or 1).
	Level() (int, error)

	// Close releases the line.
	Close() error
}

// Indicator drives a single binary output line (status LED).
type Indicator interface {
	// Set drives the line high (true) or low (false).
	Set(on bool) error

	// Close drives the line low and releases it.
	Close() error
}

// Default pin assignments (BCM numbering).
const (
	DefaultSignalPin = 26 // optocoupler output
	DefaultButtonPin = 18 // restart push button
	DefaultGreenPin  = 5  // nominal-signal LED
	DefaultRedPin    = 6  // fault LED
)

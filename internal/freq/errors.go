package freq

import "errors"

var (
	// ErrHardwareUnavailable indicates the input line cannot be read.
	// Recoverable: callers may fall back to a simulated sampler.
	ErrHardwareUnavailable = errors.New("hardware unavailable")

	// ErrDegenerateWindow indicates a measurement window with zero or
	// negative elapsed time. This points at a clock or loop bug and is
	// surfaced rather than retried.
	ErrDegenerateWindow = errors.New("degenerate sampling window")

	// ErrInvalidCalibration indicates pulses-per-cycle below 1.
	// A configuration error, reported at startup rather than per sample.
	ErrInvalidCalibration = errors.New("invalid calibration: pulses per cycle must be >= 1")
)

package sampler

import (
	"time"

	"github.com/sweeney/mains-sensor/internal/freq"
)

// Simulated generates an ideal square wave at a fixed frequency without
// touching hardware or a real clock. Timestamps advance from a fixed epoch,
// so the same sequence of calls always produces the same captures.
type Simulated struct {
	hz   float64
	base time.Time
}

// NewSimulated creates a simulated sampler producing a square wave at the
// given waveform frequency. hz <= 0 simulates a flat (dead) line.
func NewSimulated(hz float64) *Simulated {
	return &Simulated{hz: hz, base: time.Unix(0, 0)}
}

// Sample synthesizes the transitions an ideal square wave would produce
// over the window. Elapsed always equals the requested duration.
func (s *Simulated) Sample(duration time.Duration) (freq.Capture, error) {
	capture := freq.Capture{Elapsed: duration}
	if s.hz <= 0 {
		s.base = s.base.Add(duration)
		return capture, nil
	}

	// Two transitions per waveform cycle, starting high.
	half := time.Duration(float64(time.Second) / (2 * s.hz))
	level := 1
	for t := half; t <= duration; t += half {
		next := 1 - level
		dir := freq.Rising
		if next < level {
			dir = freq.Falling
		}
		capture.Transitions = append(capture.Transitions, freq.Transition{
			At:        s.base.Add(t),
			Direction: dir,
			Before:    level,
			After:     next,
		})
		level = next
	}

	s.base = s.base.Add(duration)
	return capture, nil
}

// Unavailable is the degraded-mode sampler: every call reports the hardware
// as unavailable so higher layers can run without a line present.
type Unavailable struct{}

// Sample always fails with ErrHardwareUnavailable.
func (Unavailable) Sample(time.Duration) (freq.Capture, error) {
	return freq.Capture{}, freq.ErrHardwareUnavailable
}

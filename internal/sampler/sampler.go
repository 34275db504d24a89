// Package sampler implements the edge-sampling loop: it polls a binary GPIO
// line against a monotonic clock and emits debounced level transitions.
//
// Three variants are selected at construction time so the rest of the
// pipeline is unaware which is active: Hardware (real line), Simulated
// (deterministic synthetic waveform), and Unavailable (degraded mode).
package sampler

import (
	"fmt"
	"time"

	"github.com/sweeney/mains-sensor/internal/freq"
	"github.com/sweeney/mains-sensor/internal/gpio"
)

// Options tunes a sampling run.
type Options struct {
	// Debounce is the minimum gap since the last accepted change before a
	// new level change is accepted. 0 disables debouncing entirely.
	Debounce time.Duration

	// PollInterval is an optional sleep between reads. 0 polls as fast as
	// possible, which gives the best accuracy at the cost of a spinning
	// core. Both modes must be testable side by side.
	PollInterval time.Duration
}

// Hardware samples a real GPIO line.
type Hardware struct {
	line  gpio.Line
	opts  Options
	now   func() time.Time
	sleep func(time.Duration)
}

// NewHardware creates a sampler over the given line using the wall clock's
// monotonic reading.
func NewHardware(line gpio.Line, opts Options) *Hardware {
	return NewHardwareWithClock(line, opts, time.Now, time.Sleep)
}

// NewHardwareWithClock creates a sampler with an injected clock and sleep,
// for tests.
func NewHardwareWithClock(line gpio.Line, opts Options, now func() time.Time, sleep func(time.Duration)) *Hardware {
	return &Hardware{line: line, opts: opts, now: now, sleep: sleep}
}

// Sample polls the line for roughly the given duration and returns the
// accepted transitions plus the loop's actual elapsed time. The deadline
// check happens at the top of each iteration, so the elapsed time can
// slightly exceed the request; callers must use Capture.Elapsed for any
// frequency math.
//
// A level change is only accepted relative to the last accepted level.
// Changes rejected by the debounce filter do not move the baseline, so a
// glitch must survive scrutiny twice before it can shift the tracked level.
func (h *Hardware) Sample(duration time.Duration) (freq.Capture, error) {
	start := h.now()

	accepted, err := h.line.Level()
	if err != nil {
		return freq.Capture{}, fmt.Errorf("%w: read signal line: %v", freq.ErrHardwareUnavailable, err)
	}

	var (
		transitions []freq.Transition
		lastChange  time.Time
		changed     bool
	)

	for {
		now := h.now()
		if now.Sub(start) >= duration {
			break
		}

		level, err := h.line.Level()
		if err != nil {
			return freq.Capture{}, fmt.Errorf("%w: read signal line: %v", freq.ErrHardwareUnavailable, err)
		}

		if level != accepted {
			if h.opts.Debounce == 0 || !changed || now.Sub(lastChange) > h.opts.Debounce {
				dir := freq.Rising
				if level < accepted {
					dir = freq.Falling
				}
				transitions = append(transitions, freq.Transition{
					At:        now,
					Direction: dir,
					Before:    accepted,
					After:     level,
				})
				accepted = level
				lastChange = now
				changed = true
			}
		}

		if h.opts.PollInterval > 0 {
			h.sleep(h.opts.PollInterval)
		}
	}

	return freq.Capture{
		Transitions: transitions,
		Elapsed:     h.now().Sub(start),
	}, nil
}

// Package button watches the restart push button. Presses are detected by
// polling (edge-detection on the character device proved unreliable with
// this wiring), debounced, and passed through a rate-limiting gate before
// the restart action fires.
package button

import (
	"context"
	"log"
	"time"

	"github.com/sweeney/mains-sensor/internal/gate"
	"github.com/sweeney/mains-sensor/internal/gpio"
)

const (
	defaultPoll     = 10 * time.Millisecond
	defaultDebounce = 50 * time.Millisecond
)

// Handler polls a button line and fires the restart action on gated presses.
type Handler struct {
	line   gpio.Line
	gate   *gate.Gate
	action func()

	poll     time.Duration
	debounce time.Duration
	now      func() time.Time
	sleep    func(time.Duration)
}

// Option customizes a Handler, mainly for tests.
type Option func(*Handler)

// WithClock replaces the clock and sleep functions.
func WithClock(now func() time.Time, sleep func(time.Duration)) Option {
	return func(h *Handler) {
		h.now = now
		h.sleep = sleep
	}
}

// WithIntervals overrides the polling and debounce intervals.
func WithIntervals(poll, debounce time.Duration) Option {
	return func(h *Handler) {
		h.poll = poll
		h.debounce = debounce
	}
}

// New creates a Handler. The action runs on the handler's goroutine when a
// press passes the gate.
func New(line gpio.Line, g *gate.Gate, action func(), opts ...Option) *Handler {
	h := &Handler{
		line:     line,
		gate:     g,
		action:   action,
		poll:     defaultPoll,
		debounce: defaultDebounce,
		now:      time.Now,
		sleep:    time.Sleep,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run polls the button until the context is cancelled. The button is wired
// active-low: a press is a falling edge.
func (h *Handler) Run(ctx context.Context) {
	last, err := h.line.Level()
	if err != nil {
		log.Printf("button: read failed, monitoring disabled: %v", err)
		return
	}

	var lastPress time.Time
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		level, err := h.line.Level()
		if err != nil {
			log.Printf("button: read error: %v", err)
			h.sleep(time.Second)
			continue
		}

		if last == 1 && level == 0 {
			now := h.now()
			if lastPress.IsZero() || now.Sub(lastPress) >= h.debounce {
				lastPress = now
				h.press(now)
			}
		}
		last = level

		h.sleep(h.poll)
	}
}

func (h *Handler) press(now time.Time) {
	decision := h.gate.TryFire(now)
	if !decision.Allowed {
		log.Printf("button: restart blocked: %s", decision.Reason)
		return
	}
	log.Printf("button: restart requested")
	h.action()
}

//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// Chip owns the GPIO character device handle. All lines are requested
// through it so there is exactly one acquire/release lifecycle for the
// physical device.
type Chip struct {
	chip *gpiocdev.Chip
}

// OpenChip opens the default GPIO chip.
func OpenChip() (*Chip, error) {
	c, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	return &Chip{chip: c}, nil
}

// Close releases the chip handle. Lines requested from the chip must be
// closed first.
func (c *Chip) Close() error {
	return c.chip.Close()
}

// RequestInput requests an input line with pull-up, matching the external
// optocoupler and button wiring (active-low, open-collector).
func (c *Chip) RequestInput(pin int) (Line, error) {
	l, err := c.chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		return nil, fmt.Errorf("request input pin %d: %w", pin, err)
	}
	return &realLine{line: l, pin: pin}, nil
}

// RequestOutput requests an output line driven low initially.
func (c *Chip) RequestOutput(pin int) (Indicator, error) {
	l, err := c.chip.RequestLine(pin, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("request output pin %d: %w", pin, err)
	}
	return &realIndicator{line: l, pin: pin}, nil
}

type realLine struct {
	line *gpiocdev.Line
	pin  int
}

func (r *realLine) Level() (int, error) {
	v, err := r.line.Value()
	if err != nil {
		return 0, fmt.Errorf("read pin %d: %w", r.pin, err)
	}
	return v, nil
}

// Close reconfigures the pin back to a plain input before releasing it so
// external hardware does not see a driven line across a restart.
func (r *realLine) Close() error {
	if err := r.line.Reconfigure(gpiocdev.AsInput); err != nil {
		r.line.Close()
		return fmt.Errorf("reconfigure pin %d: %w", r.pin, err)
	}
	if err := r.line.Close(); err != nil {
		return fmt.Errorf("close pin %d: %w", r.pin, err)
	}
	return nil
}

type realIndicator struct {
	line *gpiocdev.Line
	pin  int
}

func (r *realIndicator) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := r.line.SetValue(v); err != nil {
		return fmt.Errorf("set pin %d: %w", r.pin, err)
	}
	return nil
}

func (r *realIndicator) Close() error {
	if err := r.line.SetValue(0); err != nil {
		r.line.Close()
		return fmt.Errorf("clear pin %d: %w", r.pin, err)
	}
	if err := r.line.Close(); err != nil {
		return fmt.Errorf("close pin %d: %w", r.pin, err)
	}
	return nil
}

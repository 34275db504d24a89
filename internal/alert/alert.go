// Package alert checks system resource usage against configured thresholds
// and dispatches rate-limited alerts. Each distinct alert message has its
// own cooldown gate, so a persistent condition produces one alert per
// cooldown period instead of one per check.
package alert

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sweeney/mains-sensor/internal/gate"
	"github.com/sweeney/mains-sensor/internal/sysinfo"
)

// Alert levels.
const (
	LevelWarning  = "WARNING"
	LevelCritical = "CRITICAL"
)

// Alert is one dispatched alert.
type Alert struct {
	Level   string
	Message string
}

// Thresholds configures when alerts fire, as used percentages.
type Thresholds struct {
	MemoryWarningPercent float64
	CPUWarningPercent    float64
	DiskWarningPercent   float64
}

// Monitor runs periodic health checks.
type Monitor struct {
	thresholds Thresholds
	gates      *gate.Keyed
	collect    func() (sysinfo.Metrics, error)
	notify     func(a Alert)
	now        func() time.Time
}

// Option customizes a Monitor, mainly for tests.
type Option func(*Monitor)

// WithCollector replaces the metrics source.
func WithCollector(collect func() (sysinfo.Metrics, error)) Option {
	return func(m *Monitor) { m.collect = collect }
}

// WithNotifier replaces the alert sink.
func WithNotifier(notify func(a Alert)) Option {
	return func(m *Monitor) { m.notify = notify }
}

// WithClock replaces the clock.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// New creates a Monitor. cooldown is the minimum gap between repeats of the
// same alert message.
func New(t Thresholds, cooldown time.Duration, opts ...Option) *Monitor {
	m := &Monitor{
		thresholds: t,
		// One firing per message per cooldown window.
		gates: gate.NewKeyed(func() *gate.Gate {
			return gate.New(cooldown, cooldown, 1)
		}),
		collect: sysinfo.Collect,
		notify: func(a Alert) {
			log.Printf("alert [%s]: %s", a.Level, a.Message)
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run checks on the given interval until the context is cancelled.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) {
	log.Printf("alert: monitoring started (interval=%v)", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("alert: monitoring stopped")
			return
		case <-ticker.C:
			if _, err := m.Check(); err != nil {
				log.Printf("alert: check failed: %v", err)
			}
		}
	}
}

// Check runs one round of threshold checks and returns the alerts that were
// actually dispatched (i.e. passed their cooldown gate).
func (m *Monitor) Check() ([]Alert, error) {
	metrics, err := m.collect()
	if err != nil {
		return nil, err
	}

	var candidates []Alert
	if m.thresholds.MemoryWarningPercent > 0 && metrics.MemoryPercent > m.thresholds.MemoryWarningPercent {
		candidates = append(candidates, Alert{
			Level:   LevelWarning,
			Message: fmt.Sprintf("high memory usage: %.1f%%", metrics.MemoryPercent),
		})
	}
	if m.thresholds.CPUWarningPercent > 0 && metrics.CPUPercent > m.thresholds.CPUWarningPercent {
		candidates = append(candidates, Alert{
			Level:   LevelWarning,
			Message: fmt.Sprintf("high CPU usage: %.1f%%", metrics.CPUPercent),
		})
	}
	if m.thresholds.DiskWarningPercent > 0 && metrics.DiskPercent > m.thresholds.DiskWarningPercent {
		candidates = append(candidates, Alert{
			Level:   LevelCritical,
			Message: fmt.Sprintf("disk space low: %.1f%% used", metrics.DiskPercent),
		})
	}

	now := m.now()
	var fired []Alert
	for _, a := range candidates {
		// Key on level + subsystem, not the formatted value, so a wobbling
		// percentage does not defeat the cooldown.
		key := a.Level + ":" + subsystem(a.Message)
		if d := m.gates.TryFire(key, now); d.Allowed {
			m.notify(a)
			fired = append(fired, a)
		}
	}
	return fired, nil
}

func subsystem(message string) string {
	for i, c := range message {
		if c == ':' {
			return message[:i]
		}
	}
	return message
}

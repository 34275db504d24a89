// Package status provides a thread-safe tracker for the latest frequency
// estimate and verdict. Publication of a new reading is an atomic replace:
// readers (HTTP handlers, the health reporter, LED driver) never observe a
// partially-updated snapshot.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/mains-sensor/internal/classify"
	"github.com/sweeney/mains-sensor/internal/freq"
)

// Config contains daemon configuration for display.
type Config struct {
	GPIOPin           int
	PulsesPerCycle    int
	WindowSeconds     float64
	SampleCount       int
	DebounceSeconds   float64
	TargetHz          float64
	Broker            string
	HTTPAddr          string
	Simulated         bool
	CalibrationPolicy string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type; safe to use after the lock is released. The embedded
// sample slice is replaced wholesale on publish, never mutated in place.
type Snapshot struct {
	Estimate    freq.Estimate
	Verdict     classify.Verdict
	HaveReading bool

	Measurements int
	Failures     int
	LastError    string

	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Publish replaces the current reading. Called from the measurement loop
// after each completed estimate.
func (t *Tracker) Publish(est freq.Estimate, v classify.Verdict) {
	t.mu.Lock()
	t.snap.Estimate = est
	t.snap.Verdict = v
	t.snap.HaveReading = true
	t.snap.Measurements++
	t.snap.LastError = ""
	t.mu.Unlock()
}

// RecordFailure records a failed measurement round.
func (t *Tracker) RecordFailure(err error) {
	t.mu.Lock()
	t.snap.Failures++
	t.snap.LastError = err.Error()
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}

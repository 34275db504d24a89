// Package mqtt publishes frequency monitor events with abstraction for
// testing.
package mqtt

import (
	"encoding/json"
	"time"
)

// Topic is the MQTT topic for signal quality events.
const Topic = "energy/mains/sensor/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "energy/mains/sensor/system"

// Event represents a signal quality transition to be published.
type Event struct {
	Timestamp   time.Time
	Quality     string // new quality, e.g. NOMINAL
	Previous    string // previous quality, empty on first reading
	FrequencyHz float64
	ErrorHz     float64
	AccuracyPct float64
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a quality transition event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown,
// heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Mains MainsPayload `json:"mains"`
}

// MainsPayload contains the quality event details.
type MainsPayload struct {
	Timestamp   string  `json:"timestamp"`
	Quality     string  `json:"quality"`
	Previous    string  `json:"previous,omitempty"`
	FrequencyHz float64 `json:"frequency_hz"`
	ErrorHz     float64 `json:"error_hz"`
	AccuracyPct float64 `json:"accuracy_pct"`
}

// FormatPayload creates the JSON payload for a quality event.
func FormatPayload(event Event) ([]byte, error) {
	payload := Payload{
		Mains: MainsPayload{
			Timestamp:   event.Timestamp.UTC().Format(time.RFC3339),
			Quality:     event.Quality,
			Previous:    event.Previous,
			FrequencyHz: event.FrequencyHz,
			ErrorHz:     event.ErrorHz,
			AccuracyPct: event.AccuracyPct,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status
// snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

package mqtt

import (
	"encoding/json"
	"testing"
	"time"
)

func TestFormatPayload(t *testing.T) {
	event := Event{
		Timestamp:   time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		Quality:     "NOMINAL",
		Previous:    "WEAK",
		FrequencyHz: 60.012,
		ErrorHz:     0.012,
		AccuracyPct: 99.98,
	}

	data, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("FormatPayload failed: %v", err)
	}

	var out Payload
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if out.Mains.Quality != "NOMINAL" {
		t.Errorf("expected quality NOMINAL, got %q", out.Mains.Quality)
	}
	if out.Mains.Previous != "WEAK" {
		t.Errorf("expected previous WEAK, got %q", out.Mains.Previous)
	}
	if out.Mains.FrequencyHz != 60.012 {
		t.Errorf("expected frequency 60.012, got %v", out.Mains.FrequencyHz)
	}
	if out.Mains.Timestamp != "2026-01-01T12:00:00Z" {
		t.Errorf("expected RFC3339 UTC timestamp, got %q", out.Mains.Timestamp)
	}
}

func TestFormatPayloadOmitsEmptyPrevious(t *testing.T) {
	data, err := FormatPayload(Event{
		Timestamp: time.Now(),
		Quality:   "NO_SIGNAL",
	})
	if err != nil {
		t.Fatalf("FormatPayload failed: %v", err)
	}

	var raw map[string]map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if _, ok := raw["mains"]["previous"]; ok {
		t.Error("previous should be omitted on the first event")
	}
}

func TestFormatSystemPayload(t *testing.T) {
	data, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	})
	if err != nil {
		t.Fatalf("FormatSystemPayload failed: %v", err)
	}

	var out SystemPayload
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if out.System.Event != "SHUTDOWN" || out.System.Reason != "SIGTERM" {
		t.Errorf("unexpected payload: %+v", out.System)
	}
}

func TestFormatSystemPayloadRawPassthrough(t *testing.T) {
	raw := []byte(`{"status":{"quality":"NOMINAL"}}`)
	data, err := FormatSystemPayload(SystemEvent{Event: "STARTUP", RawPayload: raw})
	if err != nil {
		t.Fatalf("FormatSystemPayload failed: %v", err)
	}
	if string(data) != string(raw) {
		t.Errorf("expected raw payload passthrough, got %s", data)
	}
}

func TestFakePublisherRecords(t *testing.T) {
	f := NewFakePublisher()

	if err := f.Publish(Event{Quality: "NOMINAL"}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if err := f.PublishSystem(SystemEvent{Event: "STARTUP"}); err != nil {
		t.Fatalf("PublishSystem failed: %v", err)
	}

	if len(f.Events) != 1 || f.Events[0].Quality != "NOMINAL" {
		t.Errorf("expected 1 recorded event, got %+v", f.Events)
	}
	if len(f.SystemEvents) != 1 || f.SystemEvents[0].Event != "STARTUP" {
		t.Errorf("expected 1 recorded system event, got %+v", f.SystemEvents)
	}

	if err := f.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !f.Closed {
		t.Error("expected Closed after Close")
	}
}

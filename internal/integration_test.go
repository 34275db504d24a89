package internal

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/mains-sensor/internal/classify"
	"github.com/sweeney/mains-sensor/internal/freq"
	"github.com/sweeney/mains-sensor/internal/mqtt"
	"github.com/sweeney/mains-sensor/internal/sampler"
	"github.com/sweeney/mains-sensor/internal/status"
)

// TestIntegrationFullFlow runs the whole measurement pipeline on a simulated
// signal: sampler -> estimator -> classifier -> tracker -> MQTT fake.
func TestIntegrationFullFlow(t *testing.T) {
	// A 60 Hz line through a 2-pulse-per-cycle coupler: 120 Hz pulse train.
	smpl := sampler.NewSimulated(120)
	estimator, err := freq.NewEstimator(smpl, time.Second, 2, freq.Falling)
	if err != nil {
		t.Fatalf("NewEstimator failed: %v", err)
	}

	classifier := &classify.Classifier{
		TargetHz:          60,
		Bands:             []classify.Band{{Low: 55, High: 65}, {Low: 45, High: 55}},
		WeakEdgeThreshold: 10,
	}

	startTime := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tracker := status.NewTracker(startTime, status.Config{
		GPIOPin:        26,
		PulsesPerCycle: 2,
		TargetHz:       60,
		Broker:         "tcp://broker:1883",
	})
	publisher := mqtt.NewFakePublisher()

	// Simulate a few rounds of the main loop.
	var lastQuality classify.Quality
	for round := 0; round < 3; round++ {
		est, err := estimator.Estimate(3)
		if err != nil {
			t.Fatalf("round %d: estimate failed: %v", round, err)
		}
		v := classifier.Classify(est)
		tracker.Publish(est, v)

		if v.Quality != lastQuality {
			event := mqtt.Event{
				Timestamp:   startTime.Add(time.Duration(round) * 5 * time.Second),
				Quality:     string(v.Quality),
				Previous:    string(lastQuality),
				FrequencyHz: est.Mean,
				ErrorHz:     v.ErrorHz,
				AccuracyPct: v.AccuracyPct,
			}
			if err := publisher.Publish(event); err != nil {
				t.Fatalf("round %d: publish failed: %v", round, err)
			}
			lastQuality = v.Quality
		}
	}

	// A steady nominal signal publishes exactly one transition event.
	if len(publisher.Events) != 1 {
		t.Fatalf("expected 1 quality event, got %d", len(publisher.Events))
	}
	if publisher.Events[0].Quality != "NOMINAL" {
		t.Errorf("expected NOMINAL event, got %s", publisher.Events[0].Quality)
	}
	if publisher.Events[0].FrequencyHz != 60 {
		t.Errorf("expected 60 Hz in event, got %v", publisher.Events[0].FrequencyHz)
	}

	// Tracker reflects the last round.
	snap := tracker.Snapshot()
	if !snap.HaveReading {
		t.Fatal("tracker should have a reading")
	}
	if snap.Measurements != 3 {
		t.Errorf("expected 3 measurements, got %d", snap.Measurements)
	}
	if snap.Verdict.Quality != classify.Nominal {
		t.Errorf("expected NOMINAL verdict, got %s", snap.Verdict.Quality)
	}
	if snap.Estimate.Mean != 60 || snap.Estimate.StdDev != 0 {
		t.Errorf("expected perfect 60 Hz estimate, got mean=%v stddev=%v", snap.Estimate.Mean, snap.Estimate.StdDev)
	}

	// The published MQTT payload round-trips as the documented envelope.
	var payload mqtt.Payload
	if err := json.Unmarshal(publisher.Payloads[0], &payload); err != nil {
		t.Fatalf("published payload is not valid JSON: %v", err)
	}
	if payload.Mains.Quality != "NOMINAL" {
		t.Errorf("payload quality: expected NOMINAL, got %q", payload.Mains.Quality)
	}
}

// TestIntegrationSignalLossTransition drives the pipeline from a live signal
// into a dead line and checks the quality transition is observed.
func TestIntegrationSignalLossTransition(t *testing.T) {
	classifier := &classify.Classifier{
		TargetHz:          60,
		Bands:             []classify.Band{{Low: 55, High: 65}},
		WeakEdgeThreshold: 10,
	}
	tracker := status.NewTracker(time.Now(), status.Config{TargetHz: 60})
	publisher := mqtt.NewFakePublisher()

	measure := func(smpl freq.Sampler) classify.Verdict {
		estimator, err := freq.NewEstimator(smpl, time.Second, 2, freq.Falling)
		if err != nil {
			t.Fatalf("NewEstimator failed: %v", err)
		}
		est, err := estimator.Estimate(2)
		if err != nil {
			t.Fatalf("estimate failed: %v", err)
		}
		v := classifier.Classify(est)
		tracker.Publish(est, v)
		return v
	}

	live := measure(sampler.NewSimulated(120))
	if live.Quality != classify.Nominal {
		t.Fatalf("expected NOMINAL on live signal, got %s", live.Quality)
	}

	dead := measure(sampler.NewSimulated(0))
	if dead.Quality != classify.NoSignal {
		t.Fatalf("expected NO_SIGNAL on dead line, got %s", dead.Quality)
	}

	event := mqtt.Event{
		Timestamp: time.Now(),
		Quality:   string(dead.Quality),
		Previous:  string(live.Quality),
	}
	if err := publisher.Publish(event); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if publisher.Events[0].Previous != "NOMINAL" {
		t.Errorf("expected previous NOMINAL, got %q", publisher.Events[0].Previous)
	}
}

// TestIntegrationHardwareLossIsTyped checks degraded-mode errors stay
// recognizable through the estimator's wrapping.
func TestIntegrationHardwareLossIsTyped(t *testing.T) {
	estimator, err := freq.NewEstimator(sampler.Unavailable{}, time.Second, 2, freq.Falling)
	if err != nil {
		t.Fatalf("NewEstimator failed: %v", err)
	}

	_, err = estimator.Estimate(3)
	if !errors.Is(err, freq.ErrHardwareUnavailable) {
		t.Fatalf("expected ErrHardwareUnavailable, got %v", err)
	}

	tracker := status.NewTracker(time.Now(), status.Config{})
	tracker.RecordFailure(err)
	snap := tracker.Snapshot()
	if snap.Failures != 1 || snap.LastError == "" {
		t.Errorf("expected recorded failure, got %+v", snap)
	}
}

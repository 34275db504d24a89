package sampler

import (
	"errors"
	"testing"
	"time"

	"github.com/sweeney/mains-sensor/internal/freq"
)

func countDirection(ts []freq.Transition, d freq.Direction) int {
	n := 0
	for _, tr := range ts {
		if tr.Direction == d {
			n++
		}
	}
	return n
}

func TestSimulatedSquareWave(t *testing.T) {
	s := NewSimulated(120) // optocoupler pulse train for a 60 Hz line, ppc 2

	c, err := s.Sample(time.Second)
	if err != nil {
		t.Fatalf("Sample failed: %v", err)
	}
	if c.Elapsed != time.Second {
		t.Errorf("expected elapsed exactly 1s, got %v", c.Elapsed)
	}
	if len(c.Transitions) != 240 {
		t.Fatalf("expected 240 transitions at 120 Hz over 1s, got %d", len(c.Transitions))
	}
	if got := countDirection(c.Transitions, freq.Falling); got != 120 {
		t.Errorf("expected 120 falling edges, got %d", got)
	}
	if got := countDirection(c.Transitions, freq.Rising); got != 120 {
		t.Errorf("expected 120 rising edges, got %d", got)
	}
	// Waveform starts high, so the first edge is falling.
	if c.Transitions[0].Direction != freq.Falling {
		t.Errorf("expected first transition FALLING, got %s", c.Transitions[0].Direction)
	}
}

func TestSimulatedTimestampsOrdered(t *testing.T) {
	s := NewSimulated(60)
	c, _ := s.Sample(time.Second)
	for i := 1; i < len(c.Transitions); i++ {
		if !c.Transitions[i].At.After(c.Transitions[i-1].At) {
			t.Fatalf("transition %d not after %d", i, i-1)
		}
	}
}

func TestSimulatedAdvancesBetweenCalls(t *testing.T) {
	s := NewSimulated(60)
	a, _ := s.Sample(time.Second)
	b, _ := s.Sample(time.Second)

	if len(a.Transitions) == 0 || len(b.Transitions) == 0 {
		t.Fatal("expected transitions in both windows")
	}
	if !b.Transitions[0].At.After(a.Transitions[len(a.Transitions)-1].At) {
		t.Error("second window should start after the first ends")
	}
}

func TestSimulatedDeterministic(t *testing.T) {
	a, _ := NewSimulated(120).Sample(time.Second)
	b, _ := NewSimulated(120).Sample(time.Second)

	if len(a.Transitions) != len(b.Transitions) {
		t.Fatalf("runs differ: %d vs %d transitions", len(a.Transitions), len(b.Transitions))
	}
	for i := range a.Transitions {
		if a.Transitions[i] != b.Transitions[i] {
			t.Fatalf("transition %d differs: %+v vs %+v", i, a.Transitions[i], b.Transitions[i])
		}
	}
}

func TestSimulatedDeadLine(t *testing.T) {
	s := NewSimulated(0)
	c, err := s.Sample(time.Second)
	if err != nil {
		t.Fatalf("Sample failed: %v", err)
	}
	if len(c.Transitions) != 0 {
		t.Errorf("expected no transitions on a dead line, got %d", len(c.Transitions))
	}
	if c.Elapsed != time.Second {
		t.Errorf("expected elapsed 1s, got %v", c.Elapsed)
	}
}

func TestSimulatedThroughEstimator(t *testing.T) {
	// A 60 Hz line seen through a 2-pulse-per-cycle coupler: 120 Hz pulse
	// train, falling edges only, ppc 2 -> 60 Hz estimate with zero spread.
	e, err := freq.NewEstimator(NewSimulated(120), time.Second, 2, freq.Falling)
	if err != nil {
		t.Fatalf("NewEstimator failed: %v", err)
	}

	est, err := e.Estimate(3)
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	if est.Mean != 60 {
		t.Errorf("expected 60 Hz, got %v", est.Mean)
	}
	if est.StdDev != 0 {
		t.Errorf("expected zero spread from an ideal wave, got %v", est.StdDev)
	}
}

func TestUnavailableSampler(t *testing.T) {
	_, err := Unavailable{}.Sample(time.Second)
	if !errors.Is(err, freq.ErrHardwareUnavailable) {
		t.Errorf("expected ErrHardwareUnavailable, got %v", err)
	}
}

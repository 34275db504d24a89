package freq

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Estimator runs repeated measurement windows against a sampler and
// aggregates the derived frequency samples.
type Estimator struct {
	sampler Sampler
	window  time.Duration
	ppc     int
	filter  Direction

	// Overlapping measurements on the same line are not supported:
	// a second concurrent Estimate blocks until the first completes.
	mu sync.Mutex
}

// NewEstimator creates an Estimator. Calibration is validated here, once,
// so a bad pulses-per-cycle value fails at startup rather than per sample.
func NewEstimator(s Sampler, window time.Duration, pulsesPerCycle int, filter Direction) (*Estimator, error) {
	if pulsesPerCycle < 1 {
		return nil, fmt.Errorf("pulses per cycle %d: %w", pulsesPerCycle, ErrInvalidCalibration)
	}
	if window <= 0 {
		return nil, fmt.Errorf("window duration %v must be positive", window)
	}
	return &Estimator{
		sampler: s,
		window:  window,
		ppc:     pulsesPerCycle,
		filter:  filter,
	}, nil
}

// DeriveSample converts a counted window into a frequency sample.
// A degenerate window (elapsed <= 0) fails rather than producing Inf/NaN.
func DeriveSample(w Window, pulsesPerCycle int) (Sample, error) {
	if pulsesPerCycle < 1 {
		return Sample{}, fmt.Errorf("pulses per cycle %d: %w", pulsesPerCycle, ErrInvalidCalibration)
	}
	if w.Elapsed <= 0 {
		return Sample{}, fmt.Errorf("elapsed %v: %w", w.Elapsed, ErrDegenerateWindow)
	}
	hz := float64(w.EdgeCount) / (w.Elapsed.Seconds() * float64(pulsesPerCycle))
	return Sample{Hz: hz, Window: w, PulsesPerCycle: pulsesPerCycle}, nil
}

// Estimate runs n back-to-back measurement windows and aggregates them.
// Sampler failures propagate as typed errors; there is no partial estimate.
func (e *Estimator) Estimate(n int) (Estimate, error) {
	if n < 1 {
		return Estimate{}, fmt.Errorf("sample count %d must be >= 1", n)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	samples := make([]Sample, 0, n)
	for i := 0; i < n; i++ {
		capture, err := e.sampler.Sample(e.window)
		if err != nil {
			return Estimate{}, fmt.Errorf("sample %d/%d: %w", i+1, n, err)
		}
		w := CountEdges(capture, e.window, e.filter)
		s, err := DeriveSample(w, e.ppc)
		if err != nil {
			return Estimate{}, fmt.Errorf("sample %d/%d: %w", i+1, n, err)
		}
		samples = append(samples, s)
	}
	return Aggregate(samples), nil
}

// Aggregate computes summary statistics over a sample sequence.
// Deterministic: the same samples always produce the same estimate.
func Aggregate(samples []Sample) Estimate {
	if len(samples) == 0 {
		return Estimate{}
	}

	values := make([]float64, len(samples))
	for i, s := range samples {
		values[i] = s.Hz
	}

	est := Estimate{
		Mean:    stat.Mean(values, nil),
		Median:  median(values),
		Min:     floats.Min(values),
		Max:     floats.Max(values),
		Samples: samples,
	}
	if len(values) > 1 {
		est.StdDev = stat.StdDev(values, nil)
	}
	return est
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

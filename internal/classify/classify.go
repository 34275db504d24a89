// Package classify evaluates frequency estimates against expected bands and
// signal-presence thresholds, producing a qualitative verdict and an
// accuracy score relative to a target frequency.
package classify

import (
	"fmt"
	"math"
	"time"

	"github.com/sweeney/mains-sensor/internal/freq"
)

// Quality is the classification outcome. These are expected, reportable
// states, never errors.
type Quality string

const (
	NoSignal  Quality = "NO_SIGNAL"   // samples present, zero edges everywhere
	Weak      Quality = "WEAK"        // signal present but sparse
	Nominal   Quality = "NOMINAL"     // a candidate calibration lands in-band
	OutOfBand Quality = "OUT_OF_BAND" // no candidate calibration matches any band
)

// Band is an accepted frequency range around a known AC standard.
type Band struct {
	Low  float64
	High float64
}

// Contains reports whether hz falls inside the band (inclusive).
func (b Band) Contains(hz float64) bool {
	return hz >= b.Low && hz <= b.High
}

func (b Band) String() string {
	return fmt.Sprintf("%.1f-%.1f Hz", b.Low, b.High)
}

// Policy selects how the calibration search picks among in-band divisors.
type Policy string

const (
	// FirstMatch returns the lowest in-band divisor, matching the
	// recommendation order of the original diagnostic tooling. Default.
	FirstMatch Policy = "first_match"

	// BestMatch returns the in-band divisor whose frequency is closest to
	// the target. A deliberate, explicitly-selected alternative; some of
	// the source diagnostics disagreed on which policy is correct.
	BestMatch Policy = "best_match"
)

// Candidate is one calibration hypothesis from the divisor search.
type Candidate struct {
	Divisor int
	Hz      float64
	Band    *Band // nil when out of every configured band
}

// InBand reports whether the candidate landed in a configured band.
func (c Candidate) InBand() bool {
	return c.Band != nil
}

// Verdict is the classification result.
type Verdict struct {
	Quality     Quality
	ErrorHz     float64
	AccuracyPct float64
	MatchedBand *Band
	// Divisor is the recommended pulses-per-cycle calibration, 0 when no
	// candidate matched.
	Divisor int
}

// divisors are the candidate pulses-per-cycle values, tried in ascending
// order. Different sensing arrangements produce 1, 2, or 4 edges per AC
// cycle depending on rectification and which edges the counter sees.
var divisors = [...]int{1, 2, 3, 4}

// Classifier holds the configuration for classification.
type Classifier struct {
	// TargetHz is the frequency accuracy is scored against.
	TargetHz float64

	// Bands are the nominal bands, e.g. 55-65 Hz for a 60 Hz system.
	Bands []Band

	// WeakEdgeThreshold is the minimum total edge count across all samples
	// below which a non-zero signal is classified as Weak.
	WeakEdgeThreshold int

	// Policy selects first-match (default) or best-match calibration.
	Policy Policy
}

// Classify evaluates an estimate. Quality is NoSignal when samples exist but
// produced no edges at all, Weak when total edges fall below the threshold,
// and otherwise Nominal or OutOfBand depending on whether any candidate
// divisor lands the raw edge rate in a configured band. An out-of-band
// reading is reported as such, never coerced to the nearest band.
func (c *Classifier) Classify(est freq.Estimate) Verdict {
	if est.SampleCount() == 0 {
		return Verdict{Quality: NoSignal}
	}

	totalEdges := est.TotalEdges()
	if totalEdges == 0 {
		return Verdict{Quality: NoSignal}
	}

	errHz := math.Abs(est.Mean - c.TargetHz)
	v := Verdict{
		ErrorHz: errHz,
		// Reported even when negative; the caller decides how to display a
		// worse-than-0% accuracy.
		AccuracyPct: (1 - errHz/c.TargetHz) * 100,
	}

	if totalEdges < c.WeakEdgeThreshold {
		v.Quality = Weak
		return v
	}

	_, chosen := c.SearchCalibration(totalEdges, est.TotalElapsed())
	if chosen == nil {
		v.Quality = OutOfBand
		return v
	}

	v.Quality = Nominal
	v.MatchedBand = chosen.Band
	v.Divisor = chosen.Divisor
	return v
}

// SearchCalibration evaluates the candidate divisors against a raw edge
// count and duration, before any fixed pulses-per-cycle is assumed. It
// returns every candidate in ascending divisor order plus the chosen one
// per the configured policy (nil when nothing lands in-band).
//
// Deterministic: the same (count, elapsed, bands) always yields the same
// result.
func (c *Classifier) SearchCalibration(edgeCount int, elapsed time.Duration) ([]Candidate, *Candidate) {
	if elapsed <= 0 {
		return nil, nil
	}

	candidates := make([]Candidate, 0, len(divisors))
	for _, d := range divisors {
		hz := float64(edgeCount) / (elapsed.Seconds() * float64(d))
		cand := Candidate{Divisor: d, Hz: hz}
		for i := range c.Bands {
			if c.Bands[i].Contains(hz) {
				cand.Band = &c.Bands[i]
				break
			}
		}
		candidates = append(candidates, cand)
	}

	var chosen *Candidate
	for i := range candidates {
		if !candidates[i].InBand() {
			continue
		}
		if chosen == nil {
			chosen = &candidates[i]
			if c.Policy != BestMatch {
				// First in-band match wins in ascending divisor order.
				break
			}
			continue
		}
		if math.Abs(candidates[i].Hz-c.TargetHz) < math.Abs(chosen.Hz-c.TargetHz) {
			chosen = &candidates[i]
		}
	}
	return candidates, chosen
}

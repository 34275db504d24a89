// Package freq contains the frequency estimation core: transition types,
// edge counting, and multi-sample statistical aggregation.
// This package has no hardware dependencies; all timing metadata is carried
// in from the sampler, and the aggregation math never touches a clock.
package freq

import "time"

// Direction tags a level transition, or selects which transitions to count.
type Direction string

const (
	Rising  Direction = "RISING"  // 0 -> 1
	Falling Direction = "FALLING" // 1 -> 0
	Both    Direction = "BOTH"
)

// Transition is a single accepted level change on the input line.
// Immutable once emitted; ordered by timestamp.
type Transition struct {
	At        time.Time
	Direction Direction
	Before    int
	After     int
}

// Capture is the output of one sampling run: the accepted transitions and
// the loop's actual elapsed time. Elapsed can differ slightly from the
// requested duration; all frequency math must use Elapsed.
type Capture struct {
	Transitions []Transition
	Elapsed     time.Duration
}

// Sampler produces a Capture by observing the input line for roughly the
// given duration. Implementations live in internal/sampler.
type Sampler interface {
	Sample(duration time.Duration) (Capture, error)
}

// Window is the result of counting edges over one measurement window.
type Window struct {
	Requested time.Duration
	Elapsed   time.Duration
	EdgeCount int
	Direction Direction
}

// Sample is one derived frequency value together with its source window.
type Sample struct {
	Hz             float64
	Window         Window
	PulsesPerCycle int
}

// Estimate aggregates an ordered sequence of Samples.
// StdDev is the unbiased (n-1) sample standard deviation, reported as 0
// when there is a single sample.
type Estimate struct {
	Mean    float64
	Median  float64
	Min     float64
	Max     float64
	StdDev  float64
	Samples []Sample
}

// SampleCount returns the number of samples behind the estimate.
func (e Estimate) SampleCount() int {
	return len(e.Samples)
}

// TotalEdges returns the raw edge count summed across all sample windows.
func (e Estimate) TotalEdges() int {
	total := 0
	for _, s := range e.Samples {
		total += s.Window.EdgeCount
	}
	return total
}

// TotalElapsed returns the wall-clock duration actually sampled across all
// sample windows.
func (e Estimate) TotalElapsed() time.Duration {
	var total time.Duration
	for _, s := range e.Samples {
		total += s.Window.Elapsed
	}
	return total
}

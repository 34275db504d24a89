package gpio

import "errors"

// FakeLine is a test double that returns scripted levels.
type FakeLine struct {
	// Levels contains scripted levels to return.
	// Each call to Level() consumes the next entry.
	Levels []int

	// index tracks current position in Levels
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Level()
	ReadError error
}

// NewFakeLine creates a FakeLine with the given scripted levels.
func NewFakeLine(levels []int) *FakeLine {
	return &FakeLine{Levels: levels}
}

// Level returns the next scripted level.
// If levels are exhausted, returns the last level repeatedly.
func (f *FakeLine) Level() (int, error) {
	if f.ReadError != nil {
		return 0, f.ReadError
	}

	if len(f.Levels) == 0 {
		return 0, errors.New("no levels configured")
	}

	v := f.Levels[f.index]
	if f.index < len(f.Levels)-1 {
		f.index++
	}
	return v, nil
}

// Close marks the line as closed.
func (f *FakeLine) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds the line to the beginning of its script.
func (f *FakeLine) Reset() {
	f.index = 0
	f.Closed = false
}

// FakeIndicator records output states for test assertions.
type FakeIndicator struct {
	// States contains every value passed to Set, in order.
	States []bool

	// Closed tracks if Close was called.
	Closed bool
}

// Set records the requested state.
func (f *FakeIndicator) Set(on bool) error {
	f.States = append(f.States, on)
	return nil
}

// Close marks the indicator as closed.
func (f *FakeIndicator) Close() error {
	f.Closed = true
	return nil
}

// On reports the most recently set state, false if never set.
func (f *FakeIndicator) On() bool {
	if len(f.States) == 0 {
		return false
	}
	return f.States[len(f.States)-1]
}

package freq

import "time"

// CountEdges reduces a capture to a Window, counting only transitions that
// match the direction filter. This is a pure, stateless reduction: all
// timing comes from the capture metadata.
func CountEdges(c Capture, requested time.Duration, filter Direction) Window {
	count := 0
	for _, t := range c.Transitions {
		if filter == Both || t.Direction == filter {
			count++
		}
	}
	return Window{
		Requested: requested,
		Elapsed:   c.Elapsed,
		EdgeCount: count,
		Direction: filter,
	}
}

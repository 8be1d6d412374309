package rounds

import (
	"fmt"

	"github.com/albapepper/sportsmeta/internal/provider"
)

// Round is one feed round that returned at least one event.
type Round struct {
	Number int
	Events []provider.Event
}

// Result tracks what discovery found and what went wrong along the way.
type Result struct {
	Rounds []Round
	// Empty lists probed rounds that returned no events.
	Empty []int
	// Failed lists rounds whose fetch errored; they are treated as empty.
	Failed []int
	// Prefetched reports that the full-season schedule was used.
	Prefetched bool
	// Cancelled reports that the context ended before Stop was reached.
	Cancelled bool
	Errors    []string
}

// Numbers returns the discovered round numbers in order.
func (r *Result) Numbers() []int {
	out := make([]int, len(r.Rounds))
	for i, round := range r.Rounds {
		out[i] = round.Number
	}
	return out
}

// AddErrorf records a formatted error message.
func (r *Result) AddErrorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Summary returns a human-readable summary of the discovery run.
func (r *Result) Summary() string {
	return fmt.Sprintf(
		"rounds=%d empty=%d failed=%d prefetched=%t errors=%d",
		len(r.Rounds), len(r.Empty), len(r.Failed), r.Prefetched, len(r.Errors),
	)
}

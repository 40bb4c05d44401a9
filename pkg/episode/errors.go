package episode

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration marks bad difficulty ratios or bounds. It is
	// raised before any simulator work.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrSamplingExhausted marks a leg for which no candidate pair passed the
	// acceptance test within the attempt budget.
	ErrSamplingExhausted = errors.New("sampling exhausted")

	// ErrPointSamplingExhausted marks a point cloud draw that never satisfied
	// the island radius and height constraints.
	ErrPointSamplingExhausted = errors.New("point sampling exhausted")
)

// SamplingExhaustedError reports which leg of which episode ran dry.
type SamplingExhaustedError struct {
	Difficulty string
	Episode    int
	Leg        int
	Candidates int
	Attempts   int
}

func (e *SamplingExhaustedError) Error() string {
	if e.Candidates == 0 {
		return fmt.Sprintf("%s: difficulty %q episode %d leg %d: no candidate pairs",
			ErrSamplingExhausted, e.Difficulty, e.Episode, e.Leg)
	}
	return fmt.Sprintf("%s: difficulty %q episode %d leg %d: no acceptable pair among %d candidates after %d attempts",
		ErrSamplingExhausted, e.Difficulty, e.Episode, e.Leg, e.Candidates, e.Attempts)
}

func (e *SamplingExhaustedError) Is(target error) bool {
	return target == ErrSamplingExhausted
}

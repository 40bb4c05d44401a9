package episode

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultDifficultyRatios is the relative share of very easy, easy, medium
// and hard episodes.
const DefaultDifficultyRatios = "50, 15, 20, 15"

// MinDistRatio is the default lower bound on geodesic / Euclidean distance
// for a leg. Nearly straight legs do not exercise obstacle avoidance.
const MinDistRatio = 1.1

var (
	DefaultDifficultyNames  = []string{"very easy", "easy", "medium", "hard"}
	DefaultDifficultyBounds = []float64{1.0, 3.0, 7.0, 13.0, 20.0}
)

// Difficulty is a bucket of episodes whose legs all have a geodesic length
// in [MinDistance, MaxDistance].
type Difficulty struct {
	Name        string  `json:"name"`
	Count       int     `json:"count"`
	MinDistance float64 `json:"min_distance"`
	MaxDistance float64 `json:"max_distance"`
}

// ParseRatios parses a comma separated list of exactly n non-negative numbers.
func ParseRatios(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("%w: difficulty ratios %q: want %d values, got %d",
			ErrInvalidConfiguration, s, n, len(parts))
	}
	ratios := make([]float64, n)
	for i, p := range parts {
		r, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || math.IsNaN(r) || math.IsInf(r, 0) {
			return nil, fmt.Errorf("%w: difficulty ratios %q: %q is not a number",
				ErrInvalidConfiguration, s, strings.TrimSpace(p))
		}
		if r < 0 {
			return nil, fmt.Errorf("%w: difficulty ratios %q: negative value %v",
				ErrInvalidConfiguration, s, r)
		}
		ratios[i] = r
	}
	return ratios, nil
}

// ResolveDifficulties turns a ratio string into per-bucket episode counts,
// round(ratio_i / sum * total), paired with consecutive bounds. Nil names
// or bounds select the defaults.
func ResolveDifficulties(ratios string, total int, names []string, bounds []float64) ([]Difficulty, error) {
	out, err := Buckets(names, bounds)
	if err != nil {
		return nil, err
	}
	if total <= 0 {
		return nil, fmt.Errorf("%w: episode count must be > 0, got %d", ErrInvalidConfiguration, total)
	}

	rs, err := ParseRatios(ratios, len(out))
	if err != nil {
		return nil, err
	}
	sum := 0.0
	for _, r := range rs {
		sum += r
	}
	if sum == 0 {
		return nil, fmt.Errorf("%w: difficulty ratios %q sum to zero", ErrInvalidConfiguration, ratios)
	}

	for i := range out {
		out[i].Count = int(math.Round(rs[i] / sum * float64(total)))
	}
	return out, nil
}

// Buckets pairs names with consecutive bounds, leaving every count at zero.
// Nil names or bounds select the defaults.
func Buckets(names []string, bounds []float64) ([]Difficulty, error) {
	if names == nil {
		names = DefaultDifficultyNames
	}
	if bounds == nil {
		bounds = DefaultDifficultyBounds
	}
	if err := checkBounds(names, bounds); err != nil {
		return nil, err
	}
	out := make([]Difficulty, len(names))
	for i, name := range names {
		out[i] = Difficulty{Name: name, MinDistance: bounds[i], MaxDistance: bounds[i+1]}
	}
	return out, nil
}

func checkBounds(names []string, bounds []float64) error {
	if len(names) == 0 || len(bounds) != len(names)+1 {
		return fmt.Errorf("%w: %d difficulties need %d bounds, got %d",
			ErrInvalidConfiguration, len(names), len(names)+1, len(bounds))
	}
	if bounds[0] < 0 {
		return fmt.Errorf("%w: difficulty bounds must be non-negative, got %v", ErrInvalidConfiguration, bounds)
	}
	for i := 1; i < len(bounds); i++ {
		if !(bounds[i] > bounds[i-1]) {
			return fmt.Errorf("%w: difficulty bounds must be strictly increasing, got %v",
				ErrInvalidConfiguration, bounds)
		}
	}
	return nil
}

// Total returns the number of episodes across all buckets.
func Total(difficulties []Difficulty) int {
	n := 0
	for _, d := range difficulties {
		n += d.Count
	}
	return n
}

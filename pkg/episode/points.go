package episode

import (
	"fmt"
	"math"

	"github.com/AssemSadek/habitat-sim2real/pkg/geo"
	"github.com/AssemSadek/habitat-sim2real/pkg/sim"
)

// PointOptions constrains the point cloud.
type PointOptions struct {
	// Height, when set, keeps every point within Epsilon of this altitude.
	Height          *float64
	Epsilon         float64
	MinIslandRadius float64
	// MaxAttempts bounds the draws per point. Zero means unbounded.
	MaxAttempts int
}

// SamplePoints draws n navigable points, rejecting points on small islands
// and, when a reference height is given, points on other floors.
func SamplePoints(s sim.Simulator, n int, opts PointOptions) ([]geo.Point3, error) {
	points := make([]geo.Point3, 0, n)
	for i := 0; i < n; i++ {
		p, err := samplePoint(s, opts)
		if err != nil {
			return nil, fmt.Errorf("point %d of %d: %w", i, n, err)
		}
		points = append(points, p)
	}
	return points, nil
}

func samplePoint(s sim.Simulator, opts PointOptions) (geo.Point3, error) {
	for attempt := 1; opts.MaxAttempts <= 0 || attempt <= opts.MaxAttempts; attempt++ {
		p := s.SampleNavigablePoint()
		if s.IslandRadius(p) < opts.MinIslandRadius {
			continue
		}
		if opts.Height != nil && math.Abs(p.Y-*opts.Height) > opts.Epsilon {
			continue
		}
		return p, nil
	}
	return geo.Point3{}, fmt.Errorf("%w: no point with island radius >= %.2f at the reference height after %d attempts",
		ErrPointSamplingExhausted, opts.MinIslandRadius, opts.MaxAttempts)
}

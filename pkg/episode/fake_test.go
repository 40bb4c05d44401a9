package episode

import (
	"math"
	"math/rand"
	"sync/atomic"

	"github.com/AssemSadek/habitat-sim2real/pkg/geo"
	"github.com/AssemSadek/habitat-sim2real/pkg/sim"
)

// fakeSim is a 30x30 m open floor at y=0 where every path is detour times
// longer than the straight line. Points with x < 2 sit on a small island,
// points with x > 28 are unreachable, and a tenth of the samples land on a
// second floor at y=3.
type fakeSim struct {
	rng    *rand.Rand
	detour float64
	// trapped points have no way out.
	trapped map[geo.Point3]bool
	// broken points answer every query with their value, e.g. NaN or -1.
	broken  map[geo.Point3]float64
	queries atomic.Int64
}

func newFakeSim(detour float64) *fakeSim {
	return &fakeSim{rng: rand.New(rand.NewSource(0)), detour: detour}
}

func (f *fakeSim) Seed(seed int64) { f.rng = rand.New(rand.NewSource(seed)) }

func (f *fakeSim) SampleNavigablePoint() geo.Point3 {
	y := 0.0
	if f.rng.Intn(10) == 0 {
		y = 3
	}
	return geo.P3(30*f.rng.Float64(), y, 30*f.rng.Float64())
}

func (f *fakeSim) IslandRadius(p geo.Point3) float64 {
	if p.X < 2 {
		return 0.5
	}
	return 15
}

func (f *fakeSim) GeodesicDistance(a, b geo.Point3) float64 {
	f.queries.Add(1)
	if d, ok := f.broken[a]; ok {
		return d
	}
	if d, ok := f.broken[b]; ok {
		return d
	}
	if f.trapped[a] || a.Y != b.Y || a.X > 28 || b.X > 28 {
		return math.Inf(1)
	}
	return f.detour * a.Distance(b)
}

func (f *fakeSim) AgentState() sim.AgentState {
	return sim.AgentState{Position: geo.P3(15, 0, 15), Rotation: geo.IdentityQuat}
}

// floorPoints returns n points spread over the fake floor at y=0.
func floorPoints(n int, seed int64) []geo.Point3 {
	rng := rand.New(rand.NewSource(seed))
	points := make([]geo.Point3, n)
	for i := range points {
		points[i] = geo.P3(30*rng.Float64(), 0, 30*rng.Float64())
	}
	return points
}

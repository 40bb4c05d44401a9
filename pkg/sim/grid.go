package sim

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/AssemSadek/habitat-sim2real/pkg/config"
	"github.com/AssemSadek/habitat-sim2real/pkg/geo"
)

// floorSnap is how far a point may sit above or below a floor and still be
// on it.
const floorSnap = 0.5

type floorGrid struct {
	height float64
	nav    []bool
	island []int32 // index into GridSimulator.islands, -1 when blocked
}

type island struct {
	floor  int
	cells  int
	radius float64
}

type cellRef struct {
	floor int
	idx   int
}

// GridSimulator is a navmesh simulator over a uniform occupancy grid, one
// grid per floor. Movement is 8-connected without cutting blocked corners.
//
// GeodesicDistance, IslandRadius and IsNavigable only read immutable grid
// data and are safe for concurrent use. The remaining methods touch the
// PRNG or the agent state and are not.
type GridSimulator struct {
	name       string
	cell       float64
	origin     geo.Point2D
	cols, rows int
	floors     []floorGrid
	islands    []island
	cells      []cellRef
	depth      config.DepthSensor

	start AgentState
	state AgentState
	rng   *rand.Rand
}

// NewGridSimulator rasterizes the scene. The PRNG starts seeded with 0.
func NewGridSimulator(scene *Scene, depth config.DepthSensor) (*GridSimulator, error) {
	navPolys := make([][]geo.Polygon, len(scene.Floors))
	obsPolys := make([][]geo.Polygon, len(scene.Floors))
	minP := geo.Pt(math.Inf(1), math.Inf(1))
	maxP := geo.Pt(math.Inf(-1), math.Inf(-1))
	for i, f := range scene.Floors {
		for _, sh := range f.Navigable {
			p, err := sh.ToPolygon()
			if err != nil {
				return nil, fmt.Errorf("scene %q floors[%d]: %w", scene.Name, i, err)
			}
			lo, hi := p.BoundingBox()
			minP = geo.Pt(math.Min(minP.X, lo.X), math.Min(minP.Z, lo.Z))
			maxP = geo.Pt(math.Max(maxP.X, hi.X), math.Max(maxP.Z, hi.Z))
			navPolys[i] = append(navPolys[i], p)
		}
		for _, sh := range f.Obstacles {
			p, err := sh.ToPolygon()
			if err != nil {
				return nil, fmt.Errorf("scene %q floors[%d]: %w", scene.Name, i, err)
			}
			obsPolys[i] = append(obsPolys[i], p)
		}
	}

	g := &GridSimulator{
		name:   scene.Name,
		cell:   scene.CellSize,
		origin: minP,
		cols:   int(math.Ceil((maxP.X - minP.X) / scene.CellSize)),
		rows:   int(math.Ceil((maxP.Z - minP.Z) / scene.CellSize)),
		depth:  depth,
		rng:    rand.New(rand.NewSource(0)),
	}

	for i, f := range scene.Floors {
		fg := floorGrid{
			height: f.Height,
			nav:    make([]bool, g.cols*g.rows),
			island: make([]int32, g.cols*g.rows),
		}
		for idx := range fg.nav {
			c := g.center(idx)
			fg.nav[idx] = containsAny(navPolys[i], c) && !containsAny(obsPolys[i], c)
		}
		g.floors = append(g.floors, fg)
		g.labelIslands(i)
	}
	if len(g.cells) == 0 {
		return nil, fmt.Errorf("scene %q has no navigable cells at cell_size %.3f", scene.Name, scene.CellSize)
	}

	if scene.AgentStart != nil {
		g.start.Position = geo.P3(scene.AgentStart[0], scene.AgentStart[1], scene.AgentStart[2])
	} else {
		first := g.cells[0]
		g.start.Position = g.center(first.idx).At(g.floors[first.floor].height)
	}
	g.start.Rotation = geo.IdentityQuat
	g.state = g.start
	return g, nil
}

func containsAny(polys []geo.Polygon, p geo.Point2D) bool {
	for _, poly := range polys {
		if poly.Contains(p) {
			return true
		}
	}
	return false
}

// Name returns the scene name.
func (g *GridSimulator) Name() string { return g.name }

// CellSize returns the grid resolution in meters.
func (g *GridSimulator) CellSize() float64 { return g.cell }

func (g *GridSimulator) center(idx int) geo.Point2D {
	col, row := idx%g.cols, idx/g.cols
	return geo.Pt(
		g.origin.X+(float64(col)+0.5)*g.cell,
		g.origin.Z+(float64(row)+0.5)*g.cell,
	)
}

// locate maps p to its floor and cell. ok is false when p is off the grid
// or on a blocked cell.
func (g *GridSimulator) locate(p geo.Point3) (floor, idx int, ok bool) {
	floor = -1
	best := floorSnap
	for i, f := range g.floors {
		if d := math.Abs(p.Y - f.height); d <= best {
			floor, best = i, d
		}
	}
	if floor < 0 {
		return -1, -1, false
	}
	col := int(math.Floor((p.X - g.origin.X) / g.cell))
	row := int(math.Floor((p.Z - g.origin.Z) / g.cell))
	if col < 0 || row < 0 || col >= g.cols || row >= g.rows {
		return -1, -1, false
	}
	idx = row*g.cols + col
	return floor, idx, g.floors[floor].nav[idx]
}

var neighborOffsets = [8][2]int{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
}

// eachNeighbor calls fn for every navigable cell reachable from idx in one
// move, with the move length in cells. Diagonals need both orthogonal
// cells free.
func (g *GridSimulator) eachNeighbor(floor, idx int, fn func(n int, cost float64)) {
	nav := g.floors[floor].nav
	col, row := idx%g.cols, idx/g.cols
	free := func(c, r int) bool {
		return c >= 0 && r >= 0 && c < g.cols && r < g.rows && nav[r*g.cols+c]
	}
	for _, o := range neighborOffsets {
		c, r := col+o[0], row+o[1]
		if !free(c, r) {
			continue
		}
		if o[0] != 0 && o[1] != 0 {
			if !free(col+o[0], row) || !free(col, row+o[1]) {
				continue
			}
			fn(r*g.cols+c, math.Sqrt2)
			continue
		}
		fn(r*g.cols+c, 1)
	}
}

// labelIslands flood-fills the connected components of one floor and
// records their radius: the largest distance from the component centroid
// to a cell center, plus half a cell.
func (g *GridSimulator) labelIslands(floor int) {
	fg := &g.floors[floor]
	for i := range fg.island {
		fg.island[i] = -1
	}
	for seed, ok := range fg.nav {
		if !ok || fg.island[seed] >= 0 {
			continue
		}
		id := int32(len(g.islands))
		members := []int{seed}
		fg.island[seed] = id
		for q := 0; q < len(members); q++ {
			g.eachNeighbor(floor, members[q], func(n int, _ float64) {
				if fg.island[n] < 0 {
					fg.island[n] = id
					members = append(members, n)
				}
			})
		}

		var sum geo.Point2D
		for _, m := range members {
			sum = sum.Add(g.center(m))
			g.cells = append(g.cells, cellRef{floor: floor, idx: m})
		}
		centroid := sum.Scale(1 / float64(len(members)))
		radius := 0.0
		for _, m := range members {
			radius = math.Max(radius, centroid.Distance(g.center(m)))
		}
		g.islands = append(g.islands, island{
			floor:  floor,
			cells:  len(members),
			radius: radius + g.cell/2,
		})
	}
}

// Seed resets the PRNG used by SampleNavigablePoint.
func (g *GridSimulator) Seed(seed int64) {
	g.rng = rand.New(rand.NewSource(seed))
}

// SampleNavigablePoint returns the center of a uniformly chosen navigable
// cell on any floor.
func (g *GridSimulator) SampleNavigablePoint() geo.Point3 {
	c := g.cells[g.rng.Intn(len(g.cells))]
	return g.center(c.idx).At(g.floors[c.floor].height)
}

// IslandRadius returns the radius of the island containing p, or 0 when p
// is not navigable.
func (g *GridSimulator) IslandRadius(p geo.Point3) float64 {
	floor, idx, ok := g.locate(p)
	if !ok {
		return 0
	}
	return g.islands[g.floors[floor].island[idx]].radius
}

// IsNavigable reports whether p lies on a navigable cell.
func (g *GridSimulator) IsNavigable(p geo.Point3) bool {
	_, _, ok := g.locate(p)
	return ok
}

// GeodesicDistance returns the shortest path length from a to b, or +Inf
// when they are on different floors or islands, or off the navmesh.
func (g *GridSimulator) GeodesicDistance(a, b geo.Point3) float64 {
	fa, ia, ok := g.locate(a)
	if !ok {
		return math.Inf(1)
	}
	fb, ib, ok := g.locate(b)
	if !ok || fa != fb {
		return math.Inf(1)
	}
	fg := g.floors[fa]
	if fg.island[ia] != fg.island[ib] {
		return math.Inf(1)
	}
	if ia == ib {
		return a.Distance(b)
	}

	ca := g.center(ia).At(fg.height)
	cb := g.center(ib).At(fg.height)
	path := g.shortestPath(fa, ia, ib)
	if math.IsInf(path, 1) {
		return path
	}
	return a.Distance(ca) + path*g.cell + cb.Distance(b)
}

// AgentState returns the current agent pose.
func (g *GridSimulator) AgentState() AgentState { return g.state }

// SetAgentState moves the agent without collision checks.
func (g *GridSimulator) SetAgentState(s AgentState) {
	s.Rotation = s.Rotation.Normalize()
	g.state = s
}

// Reset returns the agent to its start pose.
func (g *GridSimulator) Reset() AgentState {
	g.state = g.start
	return g.state
}

// StepFilter slides from toward to and stops at the last navigable
// position, the way a collision-enabled agent would.
func (g *GridSimulator) StepFilter(from, to geo.Point3) geo.Point3 {
	if !g.IsNavigable(from) {
		return from
	}
	delta := to.Sub(from)
	dist := delta.Length()
	step := g.cell / 4
	n := int(math.Ceil(dist / step))
	last := from
	for i := 1; i <= n; i++ {
		p := from.Add(delta.Scale(math.Min(1, float64(i)*step/dist)))
		if !g.IsNavigable(p) {
			break
		}
		last = p
	}
	return last
}

// TopDownMap returns the occupancy map of the floor nearest height.
func (g *GridSimulator) TopDownMap(height float64) *TopDownMap {
	floor := 0
	for i, f := range g.floors {
		if math.Abs(f.height-height) < math.Abs(g.floors[floor].height-height) {
			floor = i
		}
	}
	m := &TopDownMap{
		Width:      g.cols,
		Height:     g.rows,
		Origin:     g.origin,
		Resolution: g.cell,
		Altitude:   g.floors[floor].height,
		Cells:      make([]uint8, len(g.floors[floor].nav)),
	}
	for i, ok := range g.floors[floor].nav {
		if ok {
			m.Cells[i] = 1
		}
	}
	return m
}

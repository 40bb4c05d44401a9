// Package sim defines the simulator query interface consumed by the episode
// sampler and the viewer, and a grid navmesh simulator implementing it.
package sim

import (
	"fmt"

	"github.com/AssemSadek/habitat-sim2real/pkg/config"
	"github.com/AssemSadek/habitat-sim2real/pkg/geo"
)

// AgentState is the pose of the agent.
type AgentState struct {
	Position geo.Point3 `json:"position"`
	Rotation geo.Quat   `json:"rotation"`
}

// Simulator is the query surface the episode sampler needs.
//
// GeodesicDistance returns +Inf when b is unreachable from a. Callers must
// treat non-finite or negative results as rejections.
type Simulator interface {
	SampleNavigablePoint() geo.Point3
	IslandRadius(p geo.Point3) float64
	GeodesicDistance(a, b geo.Point3) float64
	AgentState() AgentState
	Seed(seed int64)
}

// Interactive is a Simulator the viewer can drive.
type Interactive interface {
	Simulator
	SetAgentState(s AgentState)
	Reset() AgentState
	StepFilter(from, to geo.Point3) geo.Point3
	IsNavigable(p geo.Point3) bool
	Observe() Observation
	TopDownMap(height float64) *TopDownMap
}

// Observation is one sensor frame.
type Observation struct {
	State AgentState `json:"state"`
	// Depth holds one planar depth per sensor column, left to right.
	Depth []float64 `json:"depth"`
}

// TopDownMap is an occupancy image of one floor. Pixel (u, v) covers the
// world square starting at Origin + (u, v) * Resolution.
type TopDownMap struct {
	Width      int         `json:"width"`
	Height     int         `json:"height"`
	Origin     geo.Point2D `json:"origin"`
	Resolution float64     `json:"resolution"`
	Altitude   float64     `json:"altitude"`
	// Cells is row-major, 1 for navigable and 0 otherwise.
	Cells []uint8 `json:"cells"`
}

// At reports whether pixel (u, v) is navigable. Out of range pixels are not.
func (m *TopDownMap) At(u, v int) bool {
	if u < 0 || v < 0 || u >= m.Width || v >= m.Height {
		return false
	}
	return m.Cells[v*m.Width+u] == 1
}

// Make builds the simulator named by cfg.Type for the scene file at scenePath.
func Make(cfg config.Simulator, scenePath string) (Interactive, error) {
	switch cfg.Type {
	case "grid", "":
		scene, err := LoadScene(scenePath)
		if err != nil {
			return nil, err
		}
		return NewGridSimulator(scene, cfg.DepthSensor)
	default:
		return nil, fmt.Errorf("unknown simulator type %q", cfg.Type)
	}
}

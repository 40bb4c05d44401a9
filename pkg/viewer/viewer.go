// Package viewer drives an interactive simulator by hand: teleporting on
// the top-down map, stepping with keys and pinning depth readings.
//
// A Viewer is safe for concurrent use; every method runs under one lock.
package viewer

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/AssemSadek/habitat-sim2real/internal/logging"
	"github.com/AssemSadek/habitat-sim2real/pkg/config"
	"github.com/AssemSadek/habitat-sim2real/pkg/geo"
	"github.com/AssemSadek/habitat-sim2real/pkg/sim"
)

var (
	// ErrPinOutOfRange marks a pin request outside the depth scan.
	ErrPinOutOfRange = errors.New("pin column out of range")
	// ErrSessionEnded is returned for pins after the session was quit.
	ErrSessionEnded = errors.New("viewer session ended")
)

// MapPoint is a pixel on the top-down map: U grows with world X, V with
// world Z.
type MapPoint struct {
	U int `json:"u"`
	V int `json:"v"`
}

// Pin is a depth reading projected back into the world.
type Pin struct {
	Column int        `json:"column"`
	Depth  float64    `json:"depth"`
	World  geo.Point3 `json:"world"`
	Map    MapPoint   `json:"map"`
}

// Frame is everything a client needs to draw the current view.
type Frame struct {
	State     sim.AgentState `json:"state"`
	Map       MapPoint       `json:"map"`
	Heading   [2]float64     `json:"heading"`
	Depth     []float64      `json:"depth"`
	Pin       *Pin           `json:"pin,omitempty"`
	Collision bool           `json:"collision"`
	Running   bool           `json:"running"`
}

// Viewer holds the interactive session state around a simulator.
type Viewer struct {
	mu sync.Mutex

	sim      sim.Interactive
	cfg      config.Simulator
	log      *zap.Logger
	topDown  *sim.TopDownMap
	altitude float64

	obs       sim.Observation
	pin       *Pin
	collision bool
	running   bool
}

// New resets s and captures the top-down map of the floor the agent starts on.
func New(s sim.Interactive, cfg config.Simulator, log *zap.Logger) *Viewer {
	start := s.Reset()
	v := &Viewer{
		sim:      s,
		cfg:      cfg,
		log:      logging.OrNop(log),
		altitude: start.Position.Y,
		running:  true,
	}
	v.topDown = s.TopDownMap(v.altitude)
	v.obs = s.Observe()
	return v
}

// Map returns the top-down occupancy map.
func (v *Viewer) Map() *sim.TopDownMap {
	return v.topDown
}

// ProjectPosToMap returns the map pixel containing p.
func (v *Viewer) ProjectPosToMap(p geo.Point3) MapPoint {
	m := v.topDown
	return MapPoint{
		U: int(math.Floor((p.X - m.Origin.X) / m.Resolution)),
		V: int(math.Floor((p.Z - m.Origin.Z) / m.Resolution)),
	}
}

// ProjectMapToPos returns the world position of a map pixel's corner at the
// agent's starting altitude.
func (v *Viewer) ProjectMapToPos(px MapPoint) geo.Point3 {
	m := v.topDown
	return geo.P3(
		float64(px.U)*m.Resolution+m.Origin.X,
		v.altitude,
		float64(px.V)*m.Resolution+m.Origin.Z,
	)
}

// Frame returns the current view without changing anything.
func (v *Viewer) Frame() Frame {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.frame()
}

// Running reports whether the session is still open.
func (v *Viewer) Running() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.running
}

// Teleport places the agent at a map pixel. With a heading, a drag vector
// in map pixels, the agent faces along it; without one it faces +Z.
func (v *Viewer) Teleport(px MapPoint, heading *geo.Point2D) Frame {
	v.mu.Lock()
	defer v.mu.Unlock()

	pos := v.ProjectMapToPos(px)
	rot := geo.Quat{Y: 1}
	if heading != nil && heading.Length() > 0 {
		rot = geo.YawQuat(math.Pi + math.Atan2(heading.X, heading.Z))
	}
	if v.collision {
		pos = v.sim.StepFilter(pos, pos)
	}
	v.moveTo(pos, rot)
	v.log.Debug("teleport", zap.Int("u", px.U), zap.Int("v", px.V), zap.Stringer("position", pos))
	return v.frame()
}

// Translate moves the agent forward and to the right in its own frame.
func (v *Viewer) Translate(forward, right float64) Frame {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.translate(forward, right)
	return v.frame()
}

// Rotate turns the agent by deg degrees, counter-clockwise seen from above.
func (v *Viewer) Rotate(deg float64) Frame {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rotate(deg)
	return v.frame()
}

// Reset returns the agent to its start pose.
func (v *Viewer) Reset() Frame {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sim.Reset()
	v.obs = v.sim.Observe()
	return v.frame()
}

// OnKey applies one keyboard command and reports whether it was one:
// w/s forward and back, a/d strafe, q/e turn, c toggles collisions, r
// resets and x ends the session.
func (v *Viewer) OnKey(key rune) (Frame, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	step, turn := v.cfg.ForwardStepSize, v.cfg.TurnAngle
	switch key {
	case 'x':
		v.running = false
	case 'r':
		v.sim.Reset()
		v.obs = v.sim.Observe()
	case 'c':
		v.collision = !v.collision
		v.log.Debug("collision", zap.Bool("enabled", v.collision))
	case 'w':
		v.translate(step, 0)
	case 's':
		v.translate(-step, 0)
	case 'a':
		v.translate(0, -step)
	case 'd':
		v.translate(0, step)
	case 'q':
		v.rotate(turn)
	case 'e':
		v.rotate(-turn)
	default:
		return v.frame(), false
	}
	return v.frame(), true
}

// Pin projects the depth reading of one sensor column to the world and the
// map, and keeps it for following frames.
func (v *Viewer) Pin(column int) (Pin, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.running {
		return Pin{}, ErrSessionEnded
	}
	w := len(v.obs.Depth)
	if column < 0 || column >= w {
		return Pin{}, fmt.Errorf("%w: %d not in [0, %d)", ErrPinOutOfRange, column, w)
	}
	ds := v.cfg.DepthSensor
	d := v.obs.Depth[column]
	if ds.NormalizeDepth {
		d = (ds.MaxDepth-ds.MinDepth)*d + ds.MinDepth
	}

	f := sim.FocalLength(w, ds.HFOV)
	rel := geo.P3((float64(column)+0.5-0.5*float64(w))/f, 0, -1).Scale(d)
	s := v.obs.State
	world := s.Rotation.Rotate(rel).Add(s.Position)

	pin := Pin{Column: column, Depth: d, World: world, Map: v.ProjectPosToMap(world)}
	v.pin = &pin
	return pin, nil
}

func (v *Viewer) translate(forward, right float64) {
	if forward == 0 && right == 0 {
		return
	}
	s := v.sim.AgentState()
	pos := s.Position.Add(s.Rotation.Rotate(geo.P3(right, 0, -forward)))
	if v.collision {
		pos = v.sim.StepFilter(s.Position, pos)
	}
	v.moveTo(pos, s.Rotation)
}

func (v *Viewer) rotate(deg float64) {
	s := v.sim.AgentState()
	rot := geo.YawQuat(deg * math.Pi / 180).Mul(s.Rotation)
	pos := s.Position
	if v.collision {
		pos = v.sim.StepFilter(pos, pos)
	}
	v.moveTo(pos, rot)
}

func (v *Viewer) moveTo(pos geo.Point3, rot geo.Quat) {
	v.sim.SetAgentState(sim.AgentState{Position: pos, Rotation: rot})
	v.obs = v.sim.Observe()
}

// frame must be called with v.mu held.
func (v *Viewer) frame() Frame {
	s := v.obs.State
	fwd := s.Rotation.Rotate(geo.P3(0, 0, -1))
	f := Frame{
		State:     s,
		Map:       v.ProjectPosToMap(s.Position),
		Heading:   [2]float64{fwd.X, fwd.Z},
		Depth:     append([]float64(nil), v.obs.Depth...),
		Collision: v.collision,
		Running:   v.running,
	}
	if v.pin != nil {
		pin := *v.pin
		f.Pin = &pin
	}
	return f
}

package sim

import (
	"math"

	"github.com/AssemSadek/habitat-sim2real/pkg/geo"
)

// FocalLength returns the depth sensor focal length in pixels.
func FocalLength(width int, hfovDeg float64) float64 {
	return 0.5 * float64(width) / math.Tan(0.5*hfovDeg*math.Pi/180)
}

// Observe casts one ray per depth sensor column from the agent and returns
// planar depth to the first blocked cell, clamped to the sensor range and
// normalized to [0, 1] when the sensor asks for it.
func (g *GridSimulator) Observe() Observation {
	s := g.state
	w := g.depth.Width
	obs := Observation{State: s, Depth: make([]float64, w)}
	if w <= 0 {
		return obs
	}

	f := FocalLength(w, g.depth.HFOV)
	step := g.cell / 4
	span := g.depth.MaxDepth - g.depth.MinDepth
	for col := 0; col < w; col++ {
		x := (float64(col) + 0.5 - 0.5*float64(w)) / f
		ray := geo.P3(x, 0, -1)
		// Distance along the ray per unit of planar depth.
		stretch := ray.Length()
		dir := s.Rotation.Rotate(ray.Scale(1 / stretch))

		depth := g.depth.MaxDepth
		limit := g.depth.MaxDepth * stretch
		for t := step; t <= limit; t += step {
			if !g.IsNavigable(s.Position.Add(dir.Scale(t))) {
				depth = t / stretch
				break
			}
		}
		depth = math.Max(g.depth.MinDepth, math.Min(g.depth.MaxDepth, depth))
		if g.depth.NormalizeDepth && span > 0 {
			depth = (depth - g.depth.MinDepth) / span
		}
		obs.Depth[col] = depth
	}
	return obs
}

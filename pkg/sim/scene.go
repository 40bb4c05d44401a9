package sim

import (
	"fmt"
	"os"

	"github.com/AssemSadek/habitat-sim2real/pkg/geo"
	"gopkg.in/yaml.v3"
)

const circleSegments = 32

// Scene is a floor-plan description rasterized into a navigation grid.
type Scene struct {
	Name       string      `yaml:"name" json:"name"`
	CellSize   float64     `yaml:"cell_size" json:"cell_size"`
	AgentStart *[3]float64 `yaml:"agent_start,omitempty" json:"agent_start,omitempty"`
	Floors     []Floor     `yaml:"floors" json:"floors"`
}

// Floor is one walkable level. A cell is navigable when its center lies in
// some navigable shape and in no obstacle.
type Floor struct {
	Height    float64 `yaml:"height" json:"height"`
	Navigable []Shape `yaml:"navigable" json:"navigable"`
	Obstacles []Shape `yaml:"obstacles" json:"obstacles"`
}

// Shape is exactly one of a rectangle, a circle or a polygon on the floor plane.
type Shape struct {
	Rect    []float64    `yaml:"rect,omitempty" json:"rect,omitempty"` // [min_x, min_z, max_x, max_z]
	Circle  *Circle      `yaml:"circle,omitempty" json:"circle,omitempty"`
	Polygon [][2]float64 `yaml:"polygon,omitempty" json:"polygon,omitempty"`
}

type Circle struct {
	Center [2]float64 `yaml:"center" json:"center"`
	Radius float64    `yaml:"radius" json:"radius"`
}

// LoadScene reads a scene from a YAML file.
func LoadScene(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene file: %w", err)
	}
	s, err := ParseScene(data)
	if err != nil {
		return nil, err
	}
	if s.Name == "" {
		s.Name = path
	}
	return s, nil
}

// ParseScene decodes and checks a scene document.
func ParseScene(data []byte) (*Scene, error) {
	var s Scene
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing scene YAML: %w", err)
	}
	if s.CellSize <= 0 {
		return nil, fmt.Errorf("scene %q: cell_size must be > 0", s.Name)
	}
	if len(s.Floors) == 0 {
		return nil, fmt.Errorf("scene %q: at least one floor is required", s.Name)
	}
	for i, f := range s.Floors {
		if len(f.Navigable) == 0 {
			return nil, fmt.Errorf("scene %q: floors[%d] has no navigable shapes", s.Name, i)
		}
		for j, sh := range append(append([]Shape{}, f.Navigable...), f.Obstacles...) {
			if _, err := sh.ToPolygon(); err != nil {
				return nil, fmt.Errorf("scene %q: floors[%d] shape %d: %w", s.Name, i, j, err)
			}
		}
	}
	return &s, nil
}

// ToPolygon converts the shape to a polygon.
func (sh Shape) ToPolygon() (geo.Polygon, error) {
	set := 0
	if sh.Rect != nil {
		set++
	}
	if sh.Circle != nil {
		set++
	}
	if sh.Polygon != nil {
		set++
	}
	if set != 1 {
		return geo.Polygon{}, fmt.Errorf("exactly one of rect, circle or polygon must be set")
	}

	switch {
	case sh.Rect != nil:
		if len(sh.Rect) != 4 || sh.Rect[0] >= sh.Rect[2] || sh.Rect[1] >= sh.Rect[3] {
			return geo.Polygon{}, fmt.Errorf("rect must be [min_x, min_z, max_x, max_z] with min < max, got %v", sh.Rect)
		}
		return geo.Rect(geo.Pt(sh.Rect[0], sh.Rect[1]), geo.Pt(sh.Rect[2], sh.Rect[3])), nil
	case sh.Circle != nil:
		if sh.Circle.Radius <= 0 {
			return geo.Polygon{}, fmt.Errorf("circle radius must be > 0")
		}
		c := geo.Pt(sh.Circle.Center[0], sh.Circle.Center[1])
		return geo.ApproximateCircle(c, sh.Circle.Radius, circleSegments), nil
	default:
		pts := make([]geo.Point2D, len(sh.Polygon))
		for i, v := range sh.Polygon {
			pts[i] = geo.Pt(v[0], v[1])
		}
		p := geo.NewPolygon(pts...)
		if p.IsEmpty() {
			return geo.Polygon{}, fmt.Errorf("polygon needs at least 3 vertices")
		}
		return p, nil
	}
}

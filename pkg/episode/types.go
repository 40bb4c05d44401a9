// Package episode generates multi-goal point-navigation episodes from a
// cloud of navigable points, using cheap Euclidean distances to pre-filter
// candidate pairs before paying for geodesic queries.
package episode

import (
	"github.com/AssemSadek/habitat-sim2real/pkg/geo"
)

// Episode is one multi-goal navigation task.
type Episode struct {
	EpisodeID     string     `json:"episode_id"`
	SceneID       string     `json:"scene_id"`
	StartPosition geo.Point3 `json:"start_position"`
	StartRotation geo.Quat   `json:"start_rotation"`
	Goals         []Goal     `json:"goals"`
	Info          Info       `json:"info"`
}

// Goal is a position the agent must reach within Radius.
type Goal struct {
	Position geo.Point3 `json:"position"`
	Radius   float64    `json:"radius"`
}

// Info carries the difficulty label and the summed geodesic length of all
// legs, not the direct distance to the last goal.
type Info struct {
	Difficulty       string  `json:"difficulty"`
	GeodesicDistance float64 `json:"geodesic_distance"`
}

// Leg is one point-to-point segment of an episode's path.
type Leg struct {
	From, To geo.Point3
}

// Legs returns the path segments start->goal[0], goal[0]->goal[1], ...
func (e Episode) Legs() []Leg {
	legs := make([]Leg, 0, len(e.Goals))
	from := e.StartPosition
	for _, g := range e.Goals {
		legs = append(legs, Leg{From: from, To: g.Position})
		from = g.Position
	}
	return legs
}

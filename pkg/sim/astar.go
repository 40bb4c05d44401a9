package sim

import (
	"container/heap"
	"math"
)

type openNode struct {
	idx int
	f   float64
}

// openSet is the A* frontier ordered by f score.
type openSet []openNode

func (h openSet) Len() int           { return len(h) }
func (h openSet) Less(i, j int) bool { return h[i].f < h[j].f }
func (h openSet) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *openSet) Push(x any) { *h = append(*h, x.(openNode)) }

func (h *openSet) Pop() any {
	old := *h
	n := len(old)
	node := old[n-1]
	*h = old[:n-1]
	return node
}

// octile is the exact move cost between two cells on an empty 8-connected
// grid, so it never overestimates.
func (g *GridSimulator) octile(a, b int) float64 {
	dx := math.Abs(float64(a%g.cols - b%g.cols))
	dz := math.Abs(float64(a/g.cols - b/g.cols))
	return math.Max(dx, dz) + (math.Sqrt2-1)*math.Min(dx, dz)
}

// shortestPath runs A* between two cells of one floor and returns the path
// length in cells, or +Inf when goal is unreachable. Search state is local
// to the call.
func (g *GridSimulator) shortestPath(floor, start, goal int) float64 {
	gScore := make([]float64, g.cols*g.rows)
	for i := range gScore {
		gScore[i] = math.Inf(1)
	}
	closed := make([]bool, len(gScore))

	gScore[start] = 0
	open := &openSet{{idx: start, f: g.octile(start, goal)}}
	for open.Len() > 0 {
		cur := heap.Pop(open).(openNode)
		if cur.idx == goal {
			return gScore[goal]
		}
		if closed[cur.idx] {
			continue
		}
		closed[cur.idx] = true

		g.eachNeighbor(floor, cur.idx, func(n int, cost float64) {
			if closed[n] {
				return
			}
			tentative := gScore[cur.idx] + cost
			if tentative >= gScore[n] {
				return
			}
			gScore[n] = tentative
			heap.Push(open, openNode{idx: n, f: tentative + g.octile(n, goal)})
		})
	}
	return math.Inf(1)
}

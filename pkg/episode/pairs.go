package episode

import (
	"github.com/AssemSadek/habitat-sim2real/pkg/geo"
)

// Pre-filter tolerance around a bucket's geodesic range. Geodesic distance
// is never below Euclidean distance, so pairs much closer than the lower
// bound cannot qualify; the upper slack admits pairs whose path detours.
const (
	lowerSlack = 0.8
	upperSlack = 1.2
)

// CandidatePair is an unordered pair of point indices, I < J, with the
// Euclidean distance between the two points.
type CandidatePair struct {
	I, J      int32
	Euclidean float64
}

// Other returns the endpoint of p that is not i.
func (p CandidatePair) Other(i int) int {
	if int(p.I) == i {
		return int(p.J)
	}
	return int(p.I)
}

// BuildCandidatePairs enumerates every unordered pair of points. The result
// has n(n-1)/2 entries and dominates memory for large point clouds.
func BuildCandidatePairs(points []geo.Point3) []CandidatePair {
	dists := geo.PairwiseDistances(points)
	pairs := make([]CandidatePair, 0, len(dists))
	k := 0
	for i := 0; i < len(points)-1; i++ {
		for j := i + 1; j < len(points); j++ {
			pairs = append(pairs, CandidatePair{I: int32(i), J: int32(j), Euclidean: dists[k]})
			k++
		}
	}
	return pairs
}

// FilterCandidates keeps pairs whose Euclidean distance lies in
// [0.8*minD, 1.2*maxD], preserving order.
func FilterCandidates(pairs []CandidatePair, minD, maxD float64) []CandidatePair {
	lo, hi := lowerSlack*minD, upperSlack*maxD
	out := make([]CandidatePair, 0)
	for _, p := range pairs {
		if lo <= p.Euclidean && p.Euclidean <= hi {
			out = append(out, p)
		}
	}
	return out
}

// indexByEndpoint maps each point index to the positions in pairs of the
// pairs touching it, in pair order.
func indexByEndpoint(pairs []CandidatePair, nPoints int) [][]int32 {
	index := make([][]int32, nPoints)
	for k, p := range pairs {
		index[p.I] = append(index[p.I], int32(k))
		index[p.J] = append(index[p.J], int32(k))
	}
	return index
}

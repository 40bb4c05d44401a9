package geo

import (
	"encoding/json"
	"fmt"

	"github.com/golang/geo/r3"
)

// Point3 is a position in the simulator frame (Y up). It serializes as a
// three element array, the layout episode datasets use.
type Point3 struct {
	X, Y, Z float64
}

// P3 is a shorthand constructor for Point3.
func P3(x, y, z float64) Point3 {
	return Point3{X: x, Y: y, Z: z}
}

func fromVector(v r3.Vector) Point3 {
	return Point3{X: v.X, Y: v.Y, Z: v.Z}
}

// Vector returns p as an r3 vector.
func (p Point3) Vector() r3.Vector {
	return r3.Vector{X: p.X, Y: p.Y, Z: p.Z}
}

// Add returns p + q.
func (p Point3) Add(q Point3) Point3 {
	return fromVector(p.Vector().Add(q.Vector()))
}

// Sub returns p - q.
func (p Point3) Sub(q Point3) Point3 {
	return fromVector(p.Vector().Sub(q.Vector()))
}

// Scale returns p * s.
func (p Point3) Scale(s float64) Point3 {
	return fromVector(p.Vector().Mul(s))
}

// Length returns the Euclidean norm of p.
func (p Point3) Length() float64 {
	return p.Vector().Norm()
}

// Distance returns the Euclidean distance from p to q.
func (p Point3) Distance(q Point3) float64 {
	return p.Vector().Distance(q.Vector())
}

// XZ projects p onto the floor plane.
func (p Point3) XZ() Point2D {
	return Point2D{X: p.X, Z: p.Z}
}

// Array returns the coordinates as [x, y, z].
func (p Point3) Array() [3]float64 {
	return [3]float64{p.X, p.Y, p.Z}
}

func (p Point3) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", p.X, p.Y, p.Z)
}

// MarshalJSON encodes p as [x, y, z].
func (p Point3) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Array())
}

// UnmarshalJSON decodes a [x, y, z] array.
func (p *Point3) UnmarshalJSON(data []byte) error {
	var a [3]float64
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("decoding point: %w", err)
	}
	*p = Point3{X: a[0], Y: a[1], Z: a[2]}
	return nil
}

// PairwiseDistances returns the Euclidean distances between all unordered
// pairs of points in condensed order: (0,1), (0,2), ..., (0,n-1), (1,2), ...
func PairwiseDistances(points []Point3) []float64 {
	n := len(points)
	if n < 2 {
		return nil
	}
	vecs := make([]r3.Vector, n)
	for i, p := range points {
		vecs[i] = p.Vector()
	}
	out := make([]float64, 0, n*(n-1)/2)
	for i := 0; i < n-1; i++ {
		for j := i + 1; j < n; j++ {
			out = append(out, vecs[i].Distance(vecs[j]))
		}
	}
	return out
}

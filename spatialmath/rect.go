package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// Rect is an axis aligned rectangle given by its two extreme corners. Like AABB it is closed.
type Rect struct {
	Min, Max r2.Point
}

// NewRect returns the rectangle spanning min and max.
func NewRect(min, max r2.Point) (Rect, error) {
	r := Rect{Min: min, Max: max}
	if !r.Valid() {
		return Rect{}, newBadBoundsError(r)
	}
	return r, nil
}

// PointRect returns the degenerate rectangle holding a single point.
func PointRect(p r2.Point) Rect {
	return Rect{Min: p, Max: p}
}

// Valid reports whether both corners are finite and Min <= Max on both axes.
func (r Rect) Valid() bool {
	return finite(r.Min.X, r.Min.Y, r.Max.X, r.Max.Y) && r.Min.X <= r.Max.X && r.Min.Y <= r.Max.Y
}

// Center returns the center of the rectangle.
func (r Rect) Center() r2.Point {
	return r.Min.Add(r.Max).Mul(0.5)
}

// MinSide returns the length of the shorter side.
func (r Rect) MinSide() float64 {
	return math.Min(r.Max.X-r.Min.X, r.Max.Y-r.Min.Y)
}

// ContainsPoint reports whether p lies inside or on the boundary of the rectangle.
func (r Rect) ContainsPoint(p r2.Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Contains reports whether other lies entirely within r.
func (r Rect) Contains(other Rect) bool {
	return other.Min.X >= r.Min.X && other.Max.X <= r.Max.X &&
		other.Min.Y >= r.Min.Y && other.Max.Y <= r.Max.Y
}

// Overlaps reports whether the rectangles share at least one point.
func (r Rect) Overlaps(other Rect) bool {
	return r.Min.X <= other.Max.X && r.Max.X >= other.Min.X &&
		r.Min.Y <= other.Max.Y && r.Max.Y >= other.Min.Y
}

// Classify reports how other is placed relative to r.
func (r Rect) Classify(other Rect) Containment {
	switch {
	case !r.Overlaps(other):
		return Outside
	case r.Contains(other):
		return Inside
	default:
		return Intersecting
	}
}

// Split divides the rectangle evenly into quadrants: bit 1 of the index selects the upper X half
// and bit 0 the upper Y half.
func (r Rect) Split() []Rect {
	c := r.Center()
	out := make([]Rect, 4)
	for i := range out {
		child := Rect{Min: r.Min, Max: c}
		if i&2 != 0 {
			child.Min.X, child.Max.X = c.X, r.Max.X
		}
		if i&1 != 0 {
			child.Min.Y, child.Max.Y = c.Y, r.Max.Y
		}
		out[i] = child
	}
	return out
}

// DistanceSquaredTo returns the squared distance from p to the closest point of the rectangle.
func (r Rect) DistanceSquaredTo(p r2.Point) float64 {
	dx := axisGap(p.X, r.Min.X, r.Max.X)
	dy := axisGap(p.Y, r.Min.Y, r.Max.Y)
	return dx*dx + dy*dy
}

// Lift turns the rectangle into a box spanning [minZ, maxZ] on the Z axis.
func (r Rect) Lift(minZ, maxZ float64) AABB {
	return AABB{
		Min: r3.Vector{X: r.Min.X, Y: r.Min.Y, Z: minZ},
		Max: r3.Vector{X: r.Max.X, Y: r.Max.Y, Z: maxZ},
	}
}

// String returns a human readable string that represents the rectangle.
func (r Rect) String() string {
	return fmt.Sprintf("Rect | Min: X:%.2f, Y:%.2f | Max: X:%.2f, Y:%.2f", r.Min.X, r.Min.Y, r.Max.X, r.Max.Y)
}

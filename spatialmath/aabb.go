package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Ordered list of box corner signs. Corner i of an AABB takes Max on an axis when the matching sign
// is positive and Min otherwise. Child i of Split uses the same ordering.
var boxVertices = [8]r3.Vector{
	{X: -1, Y: -1, Z: -1},
	{X: -1, Y: -1, Z: 1},
	{X: -1, Y: 1, Z: -1},
	{X: -1, Y: 1, Z: 1},
	{X: 1, Y: -1, Z: -1},
	{X: 1, Y: -1, Z: 1},
	{X: 1, Y: 1, Z: -1},
	{X: 1, Y: 1, Z: 1},
}

// Face normals of an axis aligned box.
var boxNormals = [3]r3.Vector{
	{X: 1, Y: 0, Z: 0},
	{X: 0, Y: 1, Z: 0},
	{X: 0, Y: 0, Z: 1},
}

// AABB is an axis aligned bounding box given by its two extreme corners. Bounds are closed: a box
// with Min == Max on every axis is a point.
type AABB struct {
	Min, Max r3.Vector
}

// NewAABB returns the box spanning min and max. It fails if either corner is not finite or if min
// exceeds max on any axis.
func NewAABB(min, max r3.Vector) (AABB, error) {
	b := AABB{Min: min, Max: max}
	if !b.Valid() {
		return AABB{}, newBadBoundsError(b)
	}
	return b, nil
}

// NewAABBFromCenter returns the box centered on center extending halfExtents along each axis.
func NewAABBFromCenter(center, halfExtents r3.Vector) (AABB, error) {
	return NewAABB(center.Sub(halfExtents), center.Add(halfExtents))
}

// PointAABB returns the degenerate box holding a single point.
func PointAABB(p r3.Vector) AABB {
	return AABB{Min: p, Max: p}
}

// Valid reports whether both corners are finite and Min <= Max on every axis.
func (b AABB) Valid() bool {
	return finite(b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z) &&
		b.Min.X <= b.Max.X && b.Min.Y <= b.Max.Y && b.Min.Z <= b.Max.Z
}

// IsPoint reports whether the box has zero extent on every axis.
func (b AABB) IsPoint() bool {
	return b.Min == b.Max
}

// Center returns the center of the box.
func (b AABB) Center() r3.Vector {
	return b.Min.Add(b.Max).Mul(0.5)
}

// HalfExtents returns half the side lengths of the box.
func (b AABB) HalfExtents() r3.Vector {
	return b.Max.Sub(b.Min).Mul(0.5)
}

// MinSide returns the length of the shortest side.
func (b AABB) MinSide() float64 {
	d := b.Max.Sub(b.Min)
	return math.Min(d.X, math.Min(d.Y, d.Z))
}

// Vertex returns corner i using the boxVertices ordering.
func (b AABB) Vertex(i int) r3.Vector {
	s := boxVertices[i]
	v := b.Min
	if s.X > 0 {
		v.X = b.Max.X
	}
	if s.Y > 0 {
		v.Y = b.Max.Y
	}
	if s.Z > 0 {
		v.Z = b.Max.Z
	}
	return v
}

// Vertices returns all eight corners.
func (b AABB) Vertices() [8]r3.Vector {
	var out [8]r3.Vector
	for i := range out {
		out[i] = b.Vertex(i)
	}
	return out
}

// ContainsPoint reports whether p lies inside or on the boundary of the box.
func (b AABB) ContainsPoint(p r3.Vector) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Contains reports whether other lies entirely within b. Shared faces count as contained.
func (b AABB) Contains(other AABB) bool {
	return other.Min.X >= b.Min.X && other.Max.X <= b.Max.X &&
		other.Min.Y >= b.Min.Y && other.Max.Y <= b.Max.Y &&
		other.Min.Z >= b.Min.Z && other.Max.Z <= b.Max.Z
}

// Overlaps reports whether the two boxes share at least one point. Touching boxes overlap.
func (b AABB) Overlaps(other AABB) bool {
	return b.Min.X <= other.Max.X && b.Max.X >= other.Min.X &&
		b.Min.Y <= other.Max.Y && b.Max.Y >= other.Min.Y &&
		b.Min.Z <= other.Max.Z && b.Max.Z >= other.Min.Z
}

// Classify reports how other is placed relative to b, which lets a box be used as a query region.
func (b AABB) Classify(other AABB) Containment {
	switch {
	case !b.Overlaps(other):
		return Outside
	case b.Contains(other):
		return Inside
	default:
		return Intersecting
	}
}

// Union returns the smallest box containing both boxes.
func (b AABB) Union(other AABB) AABB {
	return AABB{
		Min: r3.Vector{X: math.Min(b.Min.X, other.Min.X), Y: math.Min(b.Min.Y, other.Min.Y), Z: math.Min(b.Min.Z, other.Min.Z)},
		Max: r3.Vector{X: math.Max(b.Max.X, other.Max.X), Y: math.Max(b.Max.Y, other.Max.Y), Z: math.Max(b.Max.Z, other.Max.Z)},
	}
}

// Split divides the box evenly into eight octants ordered like boxVertices: bit 2 of the index
// selects the upper X half, bit 1 the upper Y half and bit 0 the upper Z half.
func (b AABB) Split() []AABB {
	c := b.Center()
	out := make([]AABB, 8)
	for i := range out {
		child := AABB{Min: b.Min, Max: c}
		if i&4 != 0 {
			child.Min.X, child.Max.X = c.X, b.Max.X
		}
		if i&2 != 0 {
			child.Min.Y, child.Max.Y = c.Y, b.Max.Y
		}
		if i&1 != 0 {
			child.Min.Z, child.Max.Z = c.Z, b.Max.Z
		}
		out[i] = child
	}
	return out
}

// DistanceSquaredTo returns the squared distance from p to the closest point of the box, which is
// zero for points inside.
func (b AABB) DistanceSquaredTo(p r3.Vector) float64 {
	d := r3.Vector{
		X: axisGap(p.X, b.Min.X, b.Max.X),
		Y: axisGap(p.Y, b.Min.Y, b.Max.Y),
		Z: axisGap(p.Z, b.Min.Z, b.Max.Z),
	}
	return d.Norm2()
}

// XY drops the Z axis.
func (b AABB) XY() Rect {
	return Rect{
		Min: r2Point(b.Min.X, b.Min.Y),
		Max: r2Point(b.Max.X, b.Max.Y),
	}
}

// String returns a human readable string that represents the box.
func (b AABB) String() string {
	return fmt.Sprintf("AABB | Min: X:%.2f, Y:%.2f, Z:%.2f | Max: X:%.2f, Y:%.2f, Z:%.2f",
		b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
}

// project returns the interval covered by the box along axis.
func (b AABB) project(axis r3.Vector) (float64, float64) {
	c := b.Center().Dot(axis)
	h := b.HalfExtents()
	r := h.X*math.Abs(axis.X) + h.Y*math.Abs(axis.Y) + h.Z*math.Abs(axis.Z)
	return c - r, c + r
}

func axisGap(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo - v
	case v > hi:
		return v - hi
	default:
		return 0
	}
}

func newBadBoundsError(v fmt.Stringer) error {
	return errors.Wrapf(ErrInvalidBounds, "%v", v)
}

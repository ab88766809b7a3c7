package spatialmath

import (
	"fmt"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Sphere is a query region made of every point within Radius of Center.
type Sphere struct {
	Center r3.Vector
	Radius float64
}

// NewSphere returns a sphere, rejecting negative or non-finite radii.
func NewSphere(center r3.Vector, radius float64) (Sphere, error) {
	s := Sphere{Center: center, Radius: radius}
	if !s.Valid() {
		return Sphere{}, errors.Wrapf(ErrInvalidBounds, "sphere with center %v and radius %.2f", center, radius)
	}
	return s, nil
}

// Valid reports whether the sphere has a finite center and a finite, non-negative radius.
func (s Sphere) Valid() bool {
	return finite(s.Center.X, s.Center.Y, s.Center.Z, s.Radius) && s.Radius >= 0
}

// Bounds returns the box enclosing the sphere.
func (s Sphere) Bounds() AABB {
	r := r3.Vector{X: s.Radius, Y: s.Radius, Z: s.Radius}
	return AABB{Min: s.Center.Sub(r), Max: s.Center.Add(r)}
}

// Classify reports how b is placed relative to the sphere. The box is inside when its farthest
// corner is within the radius.
func (s Sphere) Classify(b AABB) Containment {
	r2 := s.Radius * s.Radius
	if b.DistanceSquaredTo(s.Center) > r2 {
		return Outside
	}
	far := r3.Vector{
		X: farthest(s.Center.X, b.Min.X, b.Max.X),
		Y: farthest(s.Center.Y, b.Min.Y, b.Max.Y),
		Z: farthest(s.Center.Z, b.Min.Z, b.Max.Z),
	}
	if far.Sub(s.Center).Norm2() <= r2 {
		return Inside
	}
	return Intersecting
}

func (s Sphere) String() string {
	return fmt.Sprintf("Sphere | Center: X:%.2f, Y:%.2f, Z:%.2f | Radius: %.2f", s.Center.X, s.Center.Y, s.Center.Z, s.Radius)
}

// Circle is the 2-D counterpart of Sphere.
type Circle struct {
	Center r2.Point
	Radius float64
}

// NewCircle returns a circle, rejecting negative or non-finite radii.
func NewCircle(center r2.Point, radius float64) (Circle, error) {
	c := Circle{Center: center, Radius: radius}
	if !c.Valid() {
		return Circle{}, errors.Wrapf(ErrInvalidBounds, "circle with center %v and radius %.2f", center, radius)
	}
	return c, nil
}

// Valid reports whether the circle has a finite center and a finite, non-negative radius.
func (c Circle) Valid() bool {
	return finite(c.Center.X, c.Center.Y, c.Radius) && c.Radius >= 0
}

// Bounds returns the rectangle enclosing the circle.
func (c Circle) Bounds() Rect {
	r := r2.Point{X: c.Radius, Y: c.Radius}
	return Rect{Min: c.Center.Sub(r), Max: c.Center.Add(r)}
}

// Classify reports how r is placed relative to the circle.
func (c Circle) Classify(r Rect) Containment {
	rr := c.Radius * c.Radius
	if r.DistanceSquaredTo(c.Center) > rr {
		return Outside
	}
	dx := farthest(c.Center.X, r.Min.X, r.Max.X) - c.Center.X
	dy := farthest(c.Center.Y, r.Min.Y, r.Max.Y) - c.Center.Y
	if dx*dx+dy*dy <= rr {
		return Inside
	}
	return Intersecting
}

func farthest(v, lo, hi float64) float64 {
	if v-lo > hi-v {
		return lo
	}
	return hi
}

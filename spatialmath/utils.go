// Package spatialmath defines the bounding volumes used by the spatial index: axis aligned boxes
// and rectangles, spheres and circles, and view frustums, along with the containment tests between
// them.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
)

// ErrInvalidBounds is wrapped by every error reporting a non-finite or inverted bounding volume.
var ErrInvalidBounds = errors.New("invalid bounds")

// Containment describes how a volume is placed relative to a query region.
type Containment uint8

// A volume is either fully outside the region, partially overlapping it, or fully inside it.
const (
	Outside = Containment(iota)
	Intersecting
	Inside
)

func (c Containment) String() string {
	switch c {
	case Outside:
		return "outside"
	case Intersecting:
		return "intersecting"
	case Inside:
		return "inside"
	}
	return "unknown"
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func r2Point(x, y float64) r2.Point {
	return r2.Point{X: x, Y: y}
}

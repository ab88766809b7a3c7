package quadtree

import (
	"github.com/golang/geo/r2"

	"go.viam.com/spatialindex/spatialmath"
)

// liftedFrustum classifies rectangles by the boxes they sweep over the tree's height span.
type liftedFrustum struct {
	f          spatialmath.Frustum
	minZ, maxZ float64
}

func (lf liftedFrustum) Classify(r spatialmath.Rect) spatialmath.Containment {
	return lf.f.Classify(r.Lift(lf.minZ, lf.maxZ))
}

func (lf liftedFrustum) Valid() bool {
	return lf.f.Valid()
}

func (lf liftedFrustum) String() string {
	return lf.f.String()
}

// QueryFrustum visits every object whose rectangle, extended over the height span, intersects the
// frustum.
func (q *Quadtree) QueryFrustum(f spatialmath.Frustum, visit Visitor) bool {
	return q.Query(liftedFrustum{f: f, minZ: q.minZ, maxZ: q.maxZ}, visit)
}

// QueryCircle visits every object whose rectangle has at least one point within the circle.
func (q *Quadtree) QueryCircle(c spatialmath.Circle, visit Visitor) bool {
	return q.Query(c, visit)
}

// QueryPoint visits every object whose rectangle contains p.
func (q *Quadtree) QueryPoint(p r2.Point, visit Visitor) bool {
	return q.QueryBox(spatialmath.PointRect(p), visit)
}

// Collect returns every object intersecting rect.
func (q *Quadtree) Collect(rect spatialmath.Rect) []ObjectRef {
	var refs []ObjectRef
	q.QueryBox(rect, func(ref ObjectRef) bool {
		refs = append(refs, ref)
		return true
	})
	return refs
}

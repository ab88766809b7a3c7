package octree

import (
	"github.com/golang/geo/r3"

	"go.viam.com/spatialindex/spatialmath"
)

// QueryFrustum visits every object whose box intersects the frustum. Octants fully inside the
// frustum report their objects without further tests, and no object outside it is ever reported.
func (o *Octree) QueryFrustum(f spatialmath.Frustum, visit Visitor) bool {
	return o.Query(f, visit)
}

// QuerySphere visits every object whose box has at least one point within the sphere.
func (o *Octree) QuerySphere(s spatialmath.Sphere, visit Visitor) bool {
	return o.Query(s, visit)
}

// QueryPoint visits every object whose box contains p.
func (o *Octree) QueryPoint(p r3.Vector, visit Visitor) bool {
	return o.QueryBox(spatialmath.PointAABB(p), visit)
}

// Collect returns every object intersecting box. Prefer QueryBox when the caller can stop early.
func (o *Octree) Collect(box spatialmath.AABB) []ObjectRef {
	var refs []ObjectRef
	o.QueryBox(box, func(ref ObjectRef) bool {
		refs = append(refs, ref)
		return true
	})
	return refs
}

package spatialmath

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Plane is an oriented plane. Points with Distance >= 0 lie on its inner side.
type Plane struct {
	Normal r3.Vector
	D      float64
}

// NewPlane returns the plane a*x + b*y + c*z + d = 0 scaled so that its normal has unit length.
func NewPlane(a, b, c, d float64) (Plane, error) {
	n := r3.Vector{X: a, Y: b, Z: c}
	l := n.Norm()
	if l == 0 || !finite(a, b, c, d) {
		return Plane{}, errors.Errorf("degenerate plane (%.3f, %.3f, %.3f, %.3f)", a, b, c, d)
	}
	return Plane{Normal: n.Mul(1 / l), D: d / l}, nil
}

// Distance returns the signed distance from p to the plane.
func (pl Plane) Distance(p r3.Vector) float64 {
	return pl.Normal.Dot(p) + pl.D
}

// Frustum plane indices.
const (
	frustumLeft = iota
	frustumRight
	frustumBottom
	frustumTop
	frustumNear
	frustumFar
)

// Frustum is a convex view volume bounded by six inward facing planes.
type Frustum struct {
	planes  [6]Plane
	corners [8]r3.Vector
	edges   []r3.Vector
}

// NewFrustumFromMatrix extracts the frustum of a combined projection * view matrix using OpenGL
// clip space conventions (-w <= x, y, z <= w).
func NewFrustumFromMatrix(viewProj mgl64.Mat4) (Frustum, error) {
	x, y, z, w := viewProj.Row(0), viewProj.Row(1), viewProj.Row(2), viewProj.Row(3)
	rows := [6]mgl64.Vec4{
		frustumLeft:   w.Add(x),
		frustumRight:  w.Sub(x),
		frustumBottom: w.Add(y),
		frustumTop:    w.Sub(y),
		frustumNear:   w.Add(z),
		frustumFar:    w.Sub(z),
	}
	var planes [6]Plane
	for i, row := range rows {
		pl, err := NewPlane(row[0], row[1], row[2], row[3])
		if err != nil {
			return Frustum{}, errors.Wrap(err, "cannot build frustum from matrix")
		}
		planes[i] = pl
	}
	return NewFrustumFromPlanes(planes)
}

// NewFrustumFromPlanes builds a frustum from inward facing planes ordered left, right, bottom, top,
// near, far. The planes must bound a closed volume.
func NewFrustumFromPlanes(planes [6]Plane) (Frustum, error) {
	f := Frustum{planes: planes}
	for i := range f.corners {
		xp, yp, zp := frustumLeft, frustumBottom, frustumNear
		if i&4 != 0 {
			xp = frustumRight
		}
		if i&2 != 0 {
			yp = frustumTop
		}
		if i&1 != 0 {
			zp = frustumFar
		}
		c, ok := intersectPlanes(planes[xp], planes[yp], planes[zp])
		if !ok {
			return Frustum{}, errors.New("frustum planes do not enclose a volume")
		}
		f.corners[i] = c
	}
	f.edges = frustumEdgeDirections(f.corners)
	return f, nil
}

// NewPerspectiveFrustum builds the frustum of a perspective camera at eye looking at target.
func NewPerspectiveFrustum(eye, target, up r3.Vector, fovY, aspect, near, far float64) (Frustum, error) {
	if fovY <= 0 || fovY >= math.Pi {
		return Frustum{}, errors.Errorf("invalid vertical field of view %.3f", fovY)
	}
	if aspect <= 0 || near <= 0 || far <= near {
		return Frustum{}, errors.Errorf("invalid perspective (aspect %.3f, near %.3f, far %.3f)", aspect, near, far)
	}
	proj := mgl64.Perspective(fovY, aspect, near, far)
	view := mgl64.LookAtV(toVec3(eye), toVec3(target), toVec3(up))
	return NewFrustumFromMatrix(proj.Mul4(view))
}

// Valid reports whether f was built by one of the frustum constructors.
func (f Frustum) Valid() bool {
	return f.edges != nil
}

// Planes returns the bounding planes ordered left, right, bottom, top, near, far.
func (f Frustum) Planes() [6]Plane {
	return f.planes
}

// Corners returns the frustum corners using the AABB vertex ordering, with left, bottom and near
// in place of the minimum side of each axis.
func (f Frustum) Corners() [8]r3.Vector {
	return f.corners
}

// Bounds returns the box enclosing the frustum.
func (f Frustum) Bounds() AABB {
	b := PointAABB(f.corners[0])
	for _, c := range f.corners[1:] {
		b = b.Union(PointAABB(c))
	}
	return b
}

// ContainsPoint reports whether p is inside or on the boundary of the frustum.
func (f Frustum) ContainsPoint(p r3.Vector) bool {
	for _, pl := range f.planes {
		if pl.Distance(p) < 0 {
			return false
		}
	}
	return true
}

// Classify reports how b is placed relative to the frustum. The plane tests alone are conservative
// near the frustum's edges, so boxes they cannot reject go through a separating axis test.
func (f Frustum) Classify(b AABB) Containment {
	inside := true
	for _, pl := range f.planes {
		pos, neg := b.Min, b.Max
		if pl.Normal.X >= 0 {
			pos.X, neg.X = b.Max.X, b.Min.X
		}
		if pl.Normal.Y >= 0 {
			pos.Y, neg.Y = b.Max.Y, b.Min.Y
		}
		if pl.Normal.Z >= 0 {
			pos.Z, neg.Z = b.Max.Z, b.Min.Z
		}
		if pl.Distance(pos) < 0 {
			return Outside
		}
		if pl.Distance(neg) < 0 {
			inside = false
		}
	}
	if inside {
		return Inside
	}
	if f.separatedFrom(b) {
		return Outside
	}
	return Intersecting
}

func (f Frustum) String() string {
	return fmt.Sprintf("Frustum | Near: %v | Far: %v", f.corners[0], f.corners[7])
}

// separatedFrom runs the separating axis test between the frustum and b. Candidate axes are the box
// face normals, the frustum plane normals and the cross products of box axes with frustum edges.
func (f Frustum) separatedFrom(b AABB) bool {
	for _, n := range boxNormals {
		if f.separatedAlong(b, n) {
			return true
		}
	}
	for _, pl := range f.planes {
		if f.separatedAlong(b, pl.Normal) {
			return true
		}
	}
	for _, n := range boxNormals {
		for _, e := range f.edges {
			axis := n.Cross(e)
			if axis.Norm2() < 1e-12 {
				continue
			}
			if f.separatedAlong(b, axis) {
				return true
			}
		}
	}
	return false
}

func (f Frustum) separatedAlong(b AABB, axis r3.Vector) bool {
	bMin, bMax := b.project(axis)
	fMin, fMax := math.Inf(1), math.Inf(-1)
	for _, c := range f.corners {
		d := c.Dot(axis)
		fMin = math.Min(fMin, d)
		fMax = math.Max(fMax, d)
	}
	return bMax < fMin || fMax < bMin
}

// Pairs of corner indices forming the twelve frustum edges.
var frustumEdgeIndices = [12][2]int{
	{0, 1}, {2, 3}, {4, 5}, {6, 7},
	{0, 2}, {1, 3}, {4, 6}, {5, 7},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// frustumEdgeDirections returns the distinct unit edge directions of the frustum.
func frustumEdgeDirections(corners [8]r3.Vector) []r3.Vector {
	dirs := make([]r3.Vector, 0, len(frustumEdgeIndices))
outer:
	for _, e := range frustumEdgeIndices {
		d := corners[e[1]].Sub(corners[e[0]])
		if d.Norm2() == 0 {
			continue
		}
		d = d.Normalize()
		for _, seen := range dirs {
			if seen.Cross(d).Norm2() < 1e-18 {
				continue outer
			}
		}
		dirs = append(dirs, d)
	}
	return dirs
}

// intersectPlanes returns the single point shared by three planes.
func intersectPlanes(a, b, c Plane) (r3.Vector, bool) {
	bc := b.Normal.Cross(c.Normal)
	denom := a.Normal.Dot(bc)
	if math.Abs(denom) < 1e-12 {
		return r3.Vector{}, false
	}
	p := bc.Mul(-a.D).
		Add(c.Normal.Cross(a.Normal).Mul(-b.D)).
		Add(a.Normal.Cross(b.Normal).Mul(-c.D)).
		Mul(1 / denom)
	return p, finite(p.X, p.Y, p.Z)
}

func toVec3(v r3.Vector) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

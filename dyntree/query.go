package dyntree

import (
	"github.com/pkg/errors"

	"go.viam.com/spatialindex/spatialmath"
)

// Region is a query volume that can classify bounds of type B. Every Bounds type is a Region over
// itself; frustums and spheres are regions over boxes.
type Region[B any] interface {
	Classify(B) spatialmath.Containment
}

// Query visits every object whose bounds are not Outside the region. Subtrees whose node bounds are
// Outside are skipped and subtrees fully Inside are reported without testing their objects, all
// other objects are tested individually, so no object is ever reported that does not intersect the
// region. Query returns false if visit stopped the traversal.
//
// Traversal is depth first with children in index order; callers should not rely on the order.
// Regions that have a Valid method are checked first and Query panics when they are not valid.
func (t *Tree[B]) Query(region Region[B], visit Visitor[B]) bool {
	if v, ok := region.(validator); ok && !v.Valid() {
		panic(errors.Wrapf(ErrInvalidRegion, "%v", region))
	}
	return t.queryNode(t.root, region, visit, false)
}

// QueryBox visits every object whose bounds intersect box. It panics if box is not Valid.
// Zero-thickness boxes are valid probes.
func (t *Tree[B]) QueryBox(box B, visit Visitor[B]) bool {
	return t.Query(box, visit)
}

type validator interface {
	Valid() bool
}

// queryNode visits the objects of n and its descendants. inside means an ancestor was found fully
// inside the region.
func (t *Tree[B]) queryNode(n *node[B], region Region[B], visit Visitor[B], inside bool) bool {
	c := spatialmath.Inside
	if !inside {
		c = region.Classify(n.bounds)
	}
	// The root also holds objects exceeding its bounds, so its objects are always tested and an
	// Outside root does not rule them out.
	isRoot := n == t.root
	if c != spatialmath.Outside || isRoot {
		test := c != spatialmath.Inside || isRoot
		for _, idx := range n.objects {
			if test && region.Classify(t.table.slots[idx].bounds) == spatialmath.Outside {
				continue
			}
			if !visit(t.table.ref(idx)) {
				return false
			}
		}
	}
	if c == spatialmath.Outside {
		return true
	}
	for _, child := range n.children {
		if child == nil {
			continue
		}
		if !t.queryNode(child, region, visit, c == spatialmath.Inside) {
			return false
		}
	}
	return true
}

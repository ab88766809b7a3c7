// Package octree implements a dynamic octree over axis aligned boxes. Objects are placed in the
// smallest octant that encloses them and can be moved every frame without invalidating the handles
// other systems hold on to.
package octree

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/spatialindex/dyntree"
	"go.viam.com/spatialindex/logging"
	"go.viam.com/spatialindex/spatialmath"
)

// DefaultMaxDepth is the subdivision depth used when a configuration does not name one.
const DefaultMaxDepth = 8

type (
	// Handle is a stable reference to an object of an Octree.
	Handle = dyntree.Handle
	// ObjectData identifies the entity an object stands for.
	ObjectData = dyntree.ObjectData
	// Key is the ordering key of an object.
	Key = dyntree.Key
	// ObjectRef is what queries hand to visitors.
	ObjectRef = dyntree.ObjectRef[spatialmath.AABB]
	// Visitor is called for every object a query finds until it returns false.
	Visitor = dyntree.Visitor[spatialmath.AABB]
)

// Octree is a dynamic spatial index over 3-D boxes. Each node splits into eight octants.
type Octree struct {
	*dyntree.Tree[spatialmath.AABB]
}

// New creates an empty octree covering bounds.
func New(bounds spatialmath.AABB, maxDepth int, minNodeSize float64, logger logging.Logger) (*Octree, error) {
	if logger == nil {
		logger = logging.NewBlankLogger("octree")
	}
	tree, err := dyntree.New(bounds, maxDepth, minNodeSize, logger)
	if err != nil {
		return nil, errors.Wrap(err, "cannot create octree")
	}
	return &Octree{Tree: tree}, nil
}

// NewCube creates an empty octree covering the cube with the given center and side length.
func NewCube(center r3.Vector, sideLength float64, maxDepth int, minNodeSize float64, logger logging.Logger) (*Octree, error) {
	if !(sideLength > 0) {
		return nil, errors.Errorf("invalid side length (%.2f) for octree", sideLength)
	}
	half := sideLength / 2
	bounds, err := spatialmath.NewAABBFromCenter(center, r3.Vector{X: half, Y: half, Z: half})
	if err != nil {
		return nil, err
	}
	return New(bounds, maxDepth, minNodeSize, logger)
}

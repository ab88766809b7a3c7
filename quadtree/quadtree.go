// Package quadtree implements a dynamic quadtree over rectangles, the 2-D counterpart of the octree
// package. Rectangles can still be culled against a 3-D view frustum by giving the tree the height
// span its objects occupy.
package quadtree

import (
	"github.com/pkg/errors"

	"go.viam.com/spatialindex/dyntree"
	"go.viam.com/spatialindex/logging"
	"go.viam.com/spatialindex/spatialmath"
)

// DefaultMaxDepth is the subdivision depth used when a configuration does not name one.
const DefaultMaxDepth = 10

type (
	// Handle is a stable reference to an object of a Quadtree.
	Handle = dyntree.Handle
	// ObjectData identifies the entity an object stands for.
	ObjectData = dyntree.ObjectData
	// Key is the ordering key of an object.
	Key = dyntree.Key
	// ObjectRef is what queries hand to visitors.
	ObjectRef = dyntree.ObjectRef[spatialmath.Rect]
	// Visitor is called for every object a query finds until it returns false.
	Visitor = dyntree.Visitor[spatialmath.Rect]
)

// Quadtree is a dynamic spatial index over rectangles. Each node splits into four quadrants.
type Quadtree struct {
	*dyntree.Tree[spatialmath.Rect]
	minZ, maxZ float64
}

// New creates an empty quadtree covering bounds. Its objects are treated as flat on Z = 0 until
// SetHeightSpan says otherwise.
func New(bounds spatialmath.Rect, maxDepth int, minNodeSize float64, logger logging.Logger) (*Quadtree, error) {
	if logger == nil {
		logger = logging.NewBlankLogger("quadtree")
	}
	tree, err := dyntree.New(bounds, maxDepth, minNodeSize, logger)
	if err != nil {
		return nil, errors.Wrap(err, "cannot create quadtree")
	}
	return &Quadtree{Tree: tree}, nil
}

// SetHeightSpan sets the Z interval every object is assumed to cover for frustum queries.
func (q *Quadtree) SetHeightSpan(minZ, maxZ float64) error {
	if !(spatialmath.Rect{}).Lift(minZ, maxZ).Valid() {
		return errors.Errorf("invalid height span [%.2f, %.2f]", minZ, maxZ)
	}
	q.minZ, q.maxZ = minZ, maxZ
	return nil
}

// HeightSpan returns the Z interval used for frustum queries.
func (q *Quadtree) HeightSpan() (float64, float64) {
	return q.minZ, q.maxZ
}

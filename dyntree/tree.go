// Package dyntree implements a dynamic spatial index: a tree that recursively subdivides a fixed
// extent into equal children and keeps each object in the smallest node that encloses it. It is
// generic over the bounds type, so the same algorithm serves octrees (eight children per node) and
// quadtrees (four).
//
// A tree is not safe for concurrent use. Mutations must be serialized against every other call;
// queries may run concurrently with each other only while no mutation is in flight.
package dyntree

import (
	"math/bits"

	"github.com/pkg/errors"

	"go.viam.com/spatialindex/logging"
	"go.viam.com/spatialindex/spatialmath"
)

// Bounds is the capability a bounding volume type provides to the tree. Contains and Overlaps are
// closed: shared faces count.
type Bounds[B any] interface {
	// Valid reports whether the bounds are finite and not inverted.
	Valid() bool
	Contains(other B) bool
	Overlaps(other B) bool
	Classify(other B) spatialmath.Containment
	// Split divides the bounds evenly into 2, 4 or 8 children.
	Split() []B
	MinSide() float64
}

// Tree is a dynamic spatial index over bounds of type B.
type Tree[B Bounds[B]] struct {
	logger      logging.Logger
	root        *node[B]
	nodes       map[uint32]*node[B]
	table       *objectTable[B]
	maxDepth    int
	minNodeSize float64
	arity       int
	levelBits   uint
}

// New creates a tree covering bounds. Nodes are not subdivided past maxDepth levels below the root,
// nor once their shortest side is minNodeSize or less.
func New[B Bounds[B]](bounds B, maxDepth int, minNodeSize float64, logger logging.Logger) (*Tree[B], error) {
	if logger == nil {
		logger = logging.NewBlankLogger("dyntree")
	}
	if !bounds.Valid() {
		return nil, errors.Wrapf(ErrInvalidBounds, "tree bounds %v", bounds)
	}
	arity := len(bounds.Split())
	if arity < 2 || arity > 8 || arity&(arity-1) != 0 {
		return nil, newInvalidConfigError("bounds split into %d children, expected 2, 4 or 8", arity)
	}
	levelBits := uint(bits.TrailingZeros(uint(arity)))
	if maxDepth < 0 {
		return nil, newInvalidConfigError("negative max depth %d", maxDepth)
	}
	if limit := MaxDepthLimit(arity); maxDepth > limit {
		return nil, newInvalidConfigError("max depth %d exceeds %d, the deepest level a cell key can encode", maxDepth, limit)
	}
	if !(minNodeSize >= 0) {
		return nil, newInvalidConfigError("min node size %v must be a non-negative number", minNodeSize)
	}

	root := &node[B]{key: rootCellKey, bounds: bounds}
	t := &Tree[B]{
		logger:      logger,
		root:        root,
		nodes:       map[uint32]*node[B]{rootCellKey: root},
		table:       newObjectTable[B](),
		maxDepth:    maxDepth,
		minNodeSize: minNodeSize,
		arity:       arity,
		levelBits:   levelBits,
	}
	logger.Debugw("created dynamic tree", "bounds", bounds, "maxDepth", maxDepth, "minNodeSize", minNodeSize, "arity", arity)
	return t, nil
}

// MaxDepthLimit returns the deepest maxDepth a tree with the given branching factor accepts.
func MaxDepthLimit(arity int) int {
	levelBits := bits.TrailingZeros(uint(arity))
	if levelBits == 0 {
		return 0
	}
	return (32 - 1) / levelBits
}

// Insert stores an object and returns its handle. The object goes to the deepest node whose bounds
// enclose it. Objects exceeding the tree's bounds are kept at the root.
func (t *Tree[B]) Insert(bounds B, data ObjectData) Handle {
	if !bounds.Valid() {
		panic(errors.Wrapf(ErrInvalidBounds, "cannot insert %v with bounds %v", data, bounds))
	}
	t.checkExtent(bounds, data)
	n, _ := t.locate(bounds, true)
	h := t.table.insert(data, n.key, bounds)
	t.attach(n, h.index)
	return h
}

// Remove deletes the object denoted by h. Nodes left empty are pruned, the root excepted.
func (t *Tree[B]) Remove(h Handle) {
	s := t.table.mustLookup(h)
	n := s.node
	t.detach(h.index)
	t.table.remove(h.index)
	t.prune(n)
}

// Update moves the object denoted by h to new bounds. The result is the same placement as removing
// and reinserting the object, but h stays valid and the object keeps its key when it stays in its
// node.
func (t *Tree[B]) Update(h Handle, bounds B) {
	s := t.table.mustLookup(h)
	if !bounds.Valid() {
		panic(errors.Wrapf(ErrInvalidBounds, "cannot move %v to bounds %v", s.data, bounds))
	}
	t.checkExtent(bounds, s.data)
	if target, exact := t.locate(bounds, false); exact && target == s.node {
		s.bounds = bounds
		return
	}

	old := s.node
	t.detach(h.index)
	n, _ := t.locate(bounds, true)
	t.table.rekey(h.index, n.key)
	s.bounds = bounds
	t.attach(n, h.index)
	t.prune(old)
}

// RemoveAll deletes every object and every node but the root. Outstanding handles become invalid.
func (t *Tree[B]) RemoveAll() {
	t.table.clear()
	t.root.objects = nil
	t.root.children = nil
	t.root.numChildren = 0
	t.nodes = map[uint32]*node[B]{rootCellKey: t.root}
}

// RemoveObjectsOfType deletes every object whose data has the given type and returns how many were
// removed.
func (t *Tree[B]) RemoveObjectsOfType(objectType int32) int {
	var doomed []Handle
	t.table.ascend(func(ref ObjectRef[B]) bool {
		if ref.Data.Type == objectType {
			doomed = append(doomed, ref.Handle)
		}
		return true
	})
	for _, h := range doomed {
		t.Remove(h)
	}
	return len(doomed)
}

// IsValid reports whether h denotes a live object of this tree.
func (t *Tree[B]) IsValid(h Handle) bool {
	_, ok := t.table.lookup(h)
	return ok
}

// Get returns the data of the object denoted by h. It panics if h is not valid.
func (t *Tree[B]) Get(h Handle) ObjectData {
	return t.table.mustLookup(h).data
}

// ObjectBounds returns the bounds the object denoted by h was last placed with.
func (t *Tree[B]) ObjectBounds(h Handle) B {
	return t.table.mustLookup(h).bounds
}

// Key returns the current key of the object denoted by h.
func (t *Tree[B]) Key(h Handle) Key {
	return t.table.mustLookup(h).key
}

// Lookup returns the handle of the live object with the given key.
func (t *Tree[B]) Lookup(key Key) (Handle, bool) {
	return t.table.find(key)
}

// Ascend visits every object in key order until visit returns false. It returns false when the
// iteration was stopped.
func (t *Tree[B]) Ascend(visit Visitor[B]) bool {
	return t.table.ascend(visit)
}

// Len returns the number of live objects.
func (t *Tree[B]) Len() int {
	return t.table.len()
}

// IsEmpty reports whether the tree holds no objects.
func (t *Tree[B]) IsEmpty() bool {
	return t.Len() == 0
}

// Bounds returns the extent the tree was created with.
func (t *Tree[B]) Bounds() B {
	return t.root.bounds
}

// MaxDepth returns the subdivision depth limit.
func (t *Tree[B]) MaxDepth() int {
	return t.maxDepth
}

// MinNodeSize returns the side length below which nodes are not subdivided.
func (t *Tree[B]) MinNodeSize() float64 {
	return t.minNodeSize
}

// Arity returns the number of children per node.
func (t *Tree[B]) Arity() int {
	return t.arity
}

func (t *Tree[B]) checkExtent(bounds B, data ObjectData) {
	if !t.root.bounds.Contains(bounds) {
		t.logger.Debugw("object exceeds tree bounds, keeping it at the root", "object", data, "bounds", bounds)
	}
}

func (t *Tree[B]) canSubdivide(n *node[B]) bool {
	return n.depth < t.maxDepth && n.bounds.MinSide() > t.minNodeSize
}

// locate walks down from the root to the node that should hold bounds. Without create it stops at
// the last existing node and reports false if the walk needed a missing child.
func (t *Tree[B]) locate(bounds B, create bool) (*node[B], bool) {
	n := t.root
	if !n.bounds.Contains(bounds) {
		return n, true
	}
	for t.canSubdivide(n) {
		i := n.fittingChild(bounds)
		if i < 0 {
			break
		}
		child := n.child(i)
		if child == nil {
			if !create {
				return n, false
			}
			child = t.newChild(n, i)
		}
		n = child
	}
	return n, true
}

func (t *Tree[B]) newChild(parent *node[B], i int) *node[B] {
	if parent.children == nil {
		parent.children = make([]*node[B], t.arity)
	}
	child := &node[B]{
		key:    childCellKey(parent.key, t.levelBits, i),
		depth:  parent.depth + 1,
		bounds: parent.childBounds()[i],
		parent: parent,
	}
	parent.children[i] = child
	parent.numChildren++
	t.nodes[child.key] = child
	return child
}

func (t *Tree[B]) attach(n *node[B], idx uint32) {
	s := &t.table.slots[idx]
	s.node = n
	s.pos = len(n.objects)
	n.objects = append(n.objects, idx)
}

func (t *Tree[B]) detach(idx uint32) {
	s := &t.table.slots[idx]
	n := s.node
	last := len(n.objects) - 1
	moved := n.objects[last]
	n.objects[s.pos] = moved
	t.table.slots[moved].pos = s.pos
	n.objects = n.objects[:last]
	s.node = nil
}

// prune removes n and then its ancestors for as long as they hold nothing.
func (t *Tree[B]) prune(n *node[B]) {
	for n != t.root && n.isEmpty() {
		parent := n.parent
		parent.children[n.key&uint32(t.arity-1)] = nil
		parent.numChildren--
		if parent.numChildren == 0 {
			parent.children = nil
		}
		delete(t.nodes, n.key)
		n.parent = nil
		n = parent
	}
}

package dyntree

// node is one cell of the spatial partition. Objects whose bounds fit within exactly one child's
// bounds live below the node, everything else lives in objects.
type node[B Bounds[B]] struct {
	key    uint32
	depth  int
	bounds B
	parent *node[B]

	// split holds the child bounds once the node was asked to place an object.
	split       []B
	children    []*node[B]
	numChildren int

	// objects holds arena slot indices. Each slot records its position here so removal is a swap.
	objects []uint32
}

func (n *node[B]) childBounds() []B {
	if n.split == nil {
		n.split = n.bounds.Split()
	}
	return n.split
}

// fittingChild returns the index of the only child whose bounds contain b, or -1 when b fits no
// child or lies flat on a split plane and fits several.
func (n *node[B]) fittingChild(b B) int {
	found := -1
	for i, cb := range n.childBounds() {
		if !cb.Contains(b) {
			continue
		}
		if found >= 0 {
			return -1
		}
		found = i
	}
	return found
}

func (n *node[B]) child(i int) *node[B] {
	if n.children == nil {
		return nil
	}
	return n.children[i]
}

func (n *node[B]) isEmpty() bool {
	return len(n.objects) == 0 && n.numChildren == 0
}

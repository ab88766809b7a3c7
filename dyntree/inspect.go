package dyntree

// NodeInfo describes one node for debugging and visualization.
type NodeInfo[B any] struct {
	CellKey  uint32
	Depth    int
	Bounds   B
	Objects  int
	Children int
}

// Stats summarizes the shape of a tree.
type Stats struct {
	Nodes   int
	Objects int
	// Depth is the depth of the deepest node, the root being at depth 0.
	Depth int
	// NodesPerDepth and ObjectsPerDepth are indexed by depth.
	NodesPerDepth   []int
	ObjectsPerDepth []int
	// ObjectsPerNode lists the object count of every node in traversal order.
	ObjectsPerNode []int
}

// Nodes visits every node depth first, parents before children, until visit returns false. It
// does not modify the tree.
func (t *Tree[B]) Nodes(visit func(NodeInfo[B]) bool) {
	t.visitNodes(t.root, visit)
}

func (t *Tree[B]) visitNodes(n *node[B], visit func(NodeInfo[B]) bool) bool {
	info := NodeInfo[B]{
		CellKey:  n.key,
		Depth:    n.depth,
		Bounds:   n.bounds,
		Objects:  len(n.objects),
		Children: n.numChildren,
	}
	if !visit(info) {
		return false
	}
	for _, child := range n.children {
		if child != nil && !t.visitNodes(child, visit) {
			return false
		}
	}
	return true
}

// NodeCount returns the number of allocated nodes, the root included.
func (t *Tree[B]) NodeCount() int {
	return len(t.nodes)
}

// Stats computes a summary of the tree.
func (t *Tree[B]) Stats() Stats {
	var st Stats
	t.Nodes(func(info NodeInfo[B]) bool {
		for len(st.NodesPerDepth) <= info.Depth {
			st.NodesPerDepth = append(st.NodesPerDepth, 0)
			st.ObjectsPerDepth = append(st.ObjectsPerDepth, 0)
		}
		st.Nodes++
		st.Objects += info.Objects
		st.NodesPerDepth[info.Depth]++
		st.ObjectsPerDepth[info.Depth] += info.Objects
		st.ObjectsPerNode = append(st.ObjectsPerNode, info.Objects)
		if info.Depth > st.Depth {
			st.Depth = info.Depth
		}
		return true
	})
	return st
}

package dyntree

import "fmt"

// ObjectData identifies the external entity an indexed object stands for. The tree never
// interprets it.
type ObjectData struct {
	Type     int32
	Instance int32
}

func (d ObjectData) String() string {
	return fmt.Sprintf("object(type=%d, instance=%d)", d.Type, d.Instance)
}

// Key orders the objects of a tree. CellKey is the path code of the node holding the object and
// Counter breaks ties between objects of the same cell in arrival order. Counters are never reused
// within a cell for the lifetime of a tree, so no two live objects share a key.
type Key struct {
	CellKey uint32
	Counter uint32
}

// Less orders keys by CellKey, then by Counter.
func (k Key) Less(other Key) bool {
	if k.CellKey == other.CellKey {
		return k.Counter < other.Counter
	}
	return k.CellKey < other.CellKey
}

// Compare returns -1, 0 or 1 depending on whether k sorts before, equal to or after other.
func (k Key) Compare(other Key) int {
	switch {
	case k.Less(other):
		return -1
	case other.Less(k):
		return 1
	default:
		return 0
	}
}

func (k Key) String() string {
	return fmt.Sprintf("%#x/%d", k.CellKey, k.Counter)
}

// rootCellKey is the path code of the root. A child's code is its parent's code shifted left by the
// bits needed for one level, with the child index in the low bits, so the leading one bit marks the
// depth.
const rootCellKey uint32 = 1

func childCellKey(parent uint32, levelBits uint, index int) uint32 {
	return parent<<levelBits | uint32(index)
}

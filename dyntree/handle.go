package dyntree

import "fmt"

// Handle is a stable reference to an object stored in a tree. It is returned by Insert and stays
// valid until that object is removed, no matter what else is inserted, moved or removed. The zero
// Handle is never valid.
type Handle struct {
	index      uint32
	generation uint32
}

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool {
	return h == Handle{}
}

func (h Handle) String() string {
	return fmt.Sprintf("handle(%d@%d)", h.index, h.generation)
}

// ObjectRef is what queries and iteration hand to visitors.
type ObjectRef[B any] struct {
	Handle Handle
	Key    Key
	Data   ObjectData
	Bounds B
}

// Visitor is called once per matching object. Returning false stops the traversal immediately.
// Visitors must not mutate the tree they are visiting.
type Visitor[B any] func(ObjectRef[B]) bool

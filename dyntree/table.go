package dyntree

import (
	"math"

	"github.com/google/btree"
	"github.com/pkg/errors"
)

const tableDegree = 32

// slot is an arena entry. A free slot keeps its generation so that handles to the object that used
// to live there stay detectably stale once the slot is reused.
type slot[B Bounds[B]] struct {
	key        Key
	data       ObjectData
	bounds     B
	node       *node[B]
	pos        int
	generation uint32
	live       bool
}

type tableEntry struct {
	key  Key
	slot uint32
}

// objectTable owns every object of a tree: a dense arena addressed by handles and an ordered index
// from key to arena slot.
type objectTable[B Bounds[B]] struct {
	slots    []slot[B]
	free     []uint32
	index    *btree.BTreeG[tableEntry]
	counters map[uint32]uint32
}

func newObjectTable[B Bounds[B]]() *objectTable[B] {
	return &objectTable[B]{
		index: btree.NewG(tableDegree, func(a, b tableEntry) bool {
			return a.key.Less(b.key)
		}),
		counters: map[uint32]uint32{},
	}
}

// nextKey allocates the next counter of a cell.
func (ot *objectTable[B]) nextKey(cellKey uint32) Key {
	c := ot.counters[cellKey]
	if c == math.MaxUint32 {
		panic(errors.Wrapf(ErrCounterExhausted, "cell %#x", cellKey))
	}
	ot.counters[cellKey] = c + 1
	return Key{CellKey: cellKey, Counter: c}
}

// insert stores a new object under the next key of cellKey and returns its handle.
func (ot *objectTable[B]) insert(data ObjectData, cellKey uint32, bounds B) Handle {
	var idx uint32
	if n := len(ot.free); n > 0 {
		idx = ot.free[n-1]
		ot.free = ot.free[:n-1]
	} else {
		if uint64(len(ot.slots)) >= math.MaxUint32 {
			panic(errors.New("object table is full"))
		}
		idx = uint32(len(ot.slots))
		ot.slots = append(ot.slots, slot[B]{generation: 1})
	}
	s := &ot.slots[idx]
	s.key = ot.nextKey(cellKey)
	s.data = data
	s.bounds = bounds
	s.live = true
	ot.index.ReplaceOrInsert(tableEntry{key: s.key, slot: idx})
	return Handle{index: idx, generation: s.generation}
}

// rekey moves an object to the next key of another cell.
func (ot *objectTable[B]) rekey(idx, cellKey uint32) {
	s := &ot.slots[idx]
	ot.index.Delete(tableEntry{key: s.key})
	s.key = ot.nextKey(cellKey)
	ot.index.ReplaceOrInsert(tableEntry{key: s.key, slot: idx})
}

// remove erases an object and retires its handle.
func (ot *objectTable[B]) remove(idx uint32) {
	s := &ot.slots[idx]
	ot.index.Delete(tableEntry{key: s.key})
	gen := s.generation + 1
	if gen == 0 {
		gen = 1
	}
	*s = slot[B]{generation: gen}
	ot.free = append(ot.free, idx)
}

// lookup returns the slot of a live handle.
func (ot *objectTable[B]) lookup(h Handle) (*slot[B], bool) {
	if int64(h.index) >= int64(len(ot.slots)) {
		return nil, false
	}
	s := &ot.slots[h.index]
	if !s.live || s.generation != h.generation {
		return nil, false
	}
	return s, true
}

// mustLookup is lookup for callers that were handed a handle they must own.
func (ot *objectTable[B]) mustLookup(h Handle) *slot[B] {
	s, ok := ot.lookup(h)
	if !ok {
		panic(errors.Wrapf(ErrInvalidHandle, "%v", h))
	}
	return s
}

func (ot *objectTable[B]) find(key Key) (Handle, bool) {
	e, ok := ot.index.Get(tableEntry{key: key})
	if !ok {
		return Handle{}, false
	}
	return Handle{index: e.slot, generation: ot.slots[e.slot].generation}, true
}

func (ot *objectTable[B]) ref(idx uint32) ObjectRef[B] {
	s := &ot.slots[idx]
	return ObjectRef[B]{
		Handle: Handle{index: idx, generation: s.generation},
		Key:    s.key,
		Data:   s.data,
		Bounds: s.bounds,
	}
}

// ascend visits live objects in key order until visit returns false.
func (ot *objectTable[B]) ascend(visit Visitor[B]) bool {
	cont := true
	ot.index.Ascend(func(e tableEntry) bool {
		cont = visit(ot.ref(e.slot))
		return cont
	})
	return cont
}

func (ot *objectTable[B]) len() int {
	return ot.index.Len()
}

// clear removes every object. Cell counters survive so keys stay unique for the tree's lifetime.
func (ot *objectTable[B]) clear() {
	for i := range ot.slots {
		if ot.slots[i].live {
			ot.remove(uint32(i))
		}
	}
}

package octree

import (
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/spatialindex/dyntree"
	"go.viam.com/spatialindex/logging"
	"go.viam.com/spatialindex/spatialmath"
)

func cube(min, max float64) spatialmath.AABB {
	return spatialmath.AABB{Min: r3.Vector{X: min, Y: min, Z: min}, Max: r3.Vector{X: max, Y: max, Z: max}}
}

func createNewOctree(t *testing.T, maxDepth int) *Octree {
	t.Helper()
	o, err := New(cube(0, 100), maxDepth, 0, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	return o
}

func instances(refs []ObjectRef) map[int32]bool {
	out := map[int32]bool{}
	for _, ref := range refs {
		out[ref.Data.Instance] = true
	}
	return out
}

func TestNewOctree(t *testing.T) {
	logger := logging.NewTestLogger(t)

	t.Run("from bounds", func(t *testing.T) {
		o, err := New(cube(-10, 10), DefaultMaxDepth, 0.5, logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, o.Arity(), test.ShouldEqual, 8)
		test.That(t, o.MaxDepth(), test.ShouldEqual, DefaultMaxDepth)
		test.That(t, o.IsEmpty(), test.ShouldBeTrue)

		_, err = New(cube(10, -10), DefaultMaxDepth, 0, logger)
		test.That(t, errors.Is(err, dyntree.ErrInvalidBounds), test.ShouldBeTrue)
		_, err = New(cube(-10, 10), 11, 0, logger)
		test.That(t, err, test.ShouldNotBeNil)
	})

	t.Run("from center and side", func(t *testing.T) {
		o, err := NewCube(r3.Vector{X: 1, Y: 2, Z: 3}, 4, 3, 0, nil)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, o.Bounds(), test.ShouldResemble, spatialmath.AABB{
			Min: r3.Vector{X: -1, Y: 0, Z: 1},
			Max: r3.Vector{X: 3, Y: 4, Z: 5},
		})

		_, err = NewCube(r3.Vector{}, 0, 3, 0, logger)
		test.That(t, err, test.ShouldBeError, errors.New("invalid side length (0.00) for octree"))
		_, err = NewCube(r3.Vector{}, math.NaN(), 3, 0, logger)
		test.That(t, err, test.ShouldNotBeNil)
	})
}

func TestOctreeScenario(t *testing.T) {
	o := createNewOctree(t, 4)
	ha := o.Insert(cube(10, 12), ObjectData{Type: 1, Instance: 1})
	o.Insert(cube(60, 62), ObjectData{Type: 1, Instance: 2})
	validateOctree(t, o)

	test.That(t, instances(o.Collect(cube(0, 50))), test.ShouldResemble, map[int32]bool{1: true})
	test.That(t, instances(o.Collect(cube(0, 100))), test.ShouldResemble, map[int32]bool{1: true, 2: true})

	o.Remove(ha)
	validateOctree(t, o)
	test.That(t, o.Collect(cube(0, 50)), test.ShouldBeEmpty)
}

func TestQueryPointAndSphere(t *testing.T) {
	o := createNewOctree(t, 5)
	o.Insert(cube(10, 20), ObjectData{Instance: 1})
	o.Insert(cube(15, 25), ObjectData{Instance: 2})
	o.Insert(cube(80, 90), ObjectData{Instance: 3})

	var found []ObjectRef
	collect := func(ref ObjectRef) bool {
		found = append(found, ref)
		return true
	}

	o.QueryPoint(r3.Vector{X: 16, Y: 16, Z: 16}, collect)
	test.That(t, instances(found), test.ShouldResemble, map[int32]bool{1: true, 2: true})

	found = nil
	o.QueryPoint(r3.Vector{X: 25, Y: 25, Z: 25}, collect)
	test.That(t, instances(found), test.ShouldResemble, map[int32]bool{2: true})

	found = nil
	o.QueryPoint(r3.Vector{X: 50, Y: 50, Z: 50}, collect)
	test.That(t, found, test.ShouldBeEmpty)

	found = nil
	s, err := spatialmath.NewSphere(r3.Vector{X: 85, Y: 85, Z: 95}, 5)
	test.That(t, err, test.ShouldBeNil)
	o.QuerySphere(s, collect)
	test.That(t, instances(found), test.ShouldResemble, map[int32]bool{3: true})

	// the sphere's bounding box touches the corner region of object 3 but the sphere does not
	found = nil
	s, err = spatialmath.NewSphere(r3.Vector{X: 94, Y: 94, Z: 94}, 6)
	test.That(t, err, test.ShouldBeNil)
	o.QuerySphere(s, collect)
	test.That(t, found, test.ShouldBeEmpty)

	err = recoverError(t, func() { o.QueryPoint(r3.Vector{X: math.NaN()}, collect) })
	test.That(t, errors.Is(err, dyntree.ErrInvalidRegion), test.ShouldBeTrue)
	err = recoverError(t, func() { o.QuerySphere(spatialmath.Sphere{Radius: -1}, collect) })
	test.That(t, errors.Is(err, dyntree.ErrInvalidRegion), test.ShouldBeTrue)
}

func TestQueryFrustum(t *testing.T) {
	o, err := New(cube(-200, 200), 6, 0, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	// camera at the origin looking down -Z
	f, err := spatialmath.NewPerspectiveFrustum(r3.Vector{}, r3.Vector{Z: -1}, r3.Vector{Y: 1}, math.Pi/2, 1, 1, 100)
	test.That(t, err, test.ShouldBeNil)

	o.Insert(cube(-1, 1).Union(spatialmath.PointAABB(r3.Vector{Z: -10})), ObjectData{Instance: 1})
	o.Insert(spatialmath.AABB{Min: r3.Vector{X: -5, Y: -5, Z: 10}, Max: r3.Vector{X: 5, Y: 5, Z: 20}}, ObjectData{Instance: 2})
	// beyond the far corner: every plane test passes but the box is separated
	o.Insert(spatialmath.AABB{Min: r3.Vector{X: 150, Y: 0, Z: -160}, Max: r3.Vector{X: 200, Y: 1, Z: -90}}, ObjectData{Instance: 3})
	o.Insert(spatialmath.AABB{Min: r3.Vector{X: -1, Y: -1, Z: -150}, Max: r3.Vector{X: 1, Y: 1, Z: -50}}, ObjectData{Instance: 4})
	validateOctree(t, o)

	var found []ObjectRef
	complete := o.QueryFrustum(f, func(ref ObjectRef) bool {
		found = append(found, ref)
		return true
	})
	test.That(t, complete, test.ShouldBeTrue)
	test.That(t, instances(found), test.ShouldResemble, map[int32]bool{1: true, 4: true})

	t.Run("matches brute force", func(t *testing.T) {
		rng := rand.New(rand.NewSource(11))
		for i := 0; i < 300; i++ {
			c := r3.Vector{X: rng.Float64()*300 - 150, Y: rng.Float64()*300 - 150, Z: rng.Float64()*300 - 150}
			b, err := spatialmath.NewAABBFromCenter(c, r3.Vector{X: rng.Float64() * 8, Y: rng.Float64() * 8, Z: rng.Float64() * 8})
			test.That(t, err, test.ShouldBeNil)
			o.Insert(b, ObjectData{Type: 9, Instance: int32(100 + i)})
		}
		want := map[int32]bool{}
		o.Ascend(func(ref ObjectRef) bool {
			if f.Classify(ref.Bounds) != spatialmath.Outside {
				want[ref.Data.Instance] = true
			}
			return true
		})
		found = nil
		o.QueryFrustum(f, func(ref ObjectRef) bool {
			found = append(found, ref)
			return true
		})
		test.That(t, len(found), test.ShouldEqual, len(want))
		test.That(t, instances(found), test.ShouldResemble, want)
	})

	t.Run("early exit", func(t *testing.T) {
		visits := 0
		test.That(t, o.QueryFrustum(f, func(ObjectRef) bool {
			visits++
			return false
		}), test.ShouldBeFalse)
		test.That(t, visits, test.ShouldEqual, 1)
	})

	t.Run("zero frustum", func(t *testing.T) {
		err := recoverError(t, func() { o.QueryFrustum(spatialmath.Frustum{}, func(ObjectRef) bool { return true }) })
		test.That(t, errors.Is(err, dyntree.ErrInvalidRegion), test.ShouldBeTrue)
	})
}

func TestMovingObjects(t *testing.T) {
	o := createNewOctree(t, 6)
	rng := rand.New(rand.NewSource(12))
	type body struct {
		h   Handle
		pos r3.Vector
		vel r3.Vector
	}
	bodies := make([]body, 50)
	half := r3.Vector{X: 1, Y: 1, Z: 1}
	for i := range bodies {
		pos := r3.Vector{X: rng.Float64() * 100, Y: rng.Float64() * 100, Z: rng.Float64() * 100}
		bodies[i] = body{
			h:   o.Insert(spatialmath.AABB{Min: pos.Sub(half), Max: pos.Add(half)}, ObjectData{Instance: int32(i)}),
			pos: pos,
			vel: r3.Vector{X: rng.Float64() - .5, Y: rng.Float64() - .5, Z: rng.Float64() - .5},
		}
	}
	for frame := 0; frame < 100; frame++ {
		for i := range bodies {
			b := &bodies[i]
			b.pos = b.pos.Add(b.vel)
			o.Update(b.h, spatialmath.AABB{Min: b.pos.Sub(half), Max: b.pos.Add(half)})
		}
	}
	validateOctree(t, o)
	for i, b := range bodies {
		test.That(t, o.IsValid(b.h), test.ShouldBeTrue)
		test.That(t, o.Get(b.h).Instance, test.ShouldEqual, int32(i))
		var hit bool
		o.QueryPoint(b.pos, func(ref ObjectRef) bool {
			hit = ref.Handle == b.h
			return !hit
		})
		test.That(t, hit, test.ShouldBeTrue)
	}
}

func recoverError(t *testing.T, f func()) (err error) {
	t.Helper()
	defer func() {
		r := recover()
		test.That(t, r, test.ShouldNotBeNil)
		var ok bool
		err, ok = r.(error)
		test.That(t, ok, test.ShouldBeTrue)
	}()
	f()
	return nil
}

// validateOctree checks through the public API that every object sits in an existing node that
// encloses it and that node object counts add up.
func validateOctree(t *testing.T, o *Octree) {
	t.Helper()

	nodes := map[uint32]dyntree.NodeInfo[spatialmath.AABB]{}
	total := 0
	o.Nodes(func(info dyntree.NodeInfo[spatialmath.AABB]) bool {
		nodes[info.CellKey] = info
		total += info.Objects
		if info.Depth > 0 {
			test.That(t, info.Objects+info.Children, test.ShouldBeGreaterThan, 0)
		}
		return true
	})
	test.That(t, total, test.ShouldEqual, o.Len())
	test.That(t, len(nodes), test.ShouldEqual, o.NodeCount())

	o.Ascend(func(ref ObjectRef) bool {
		info, ok := nodes[ref.Key.CellKey]
		test.That(t, ok, test.ShouldBeTrue)
		if info.Depth > 0 {
			test.That(t, info.Bounds.Contains(ref.Bounds), test.ShouldBeTrue)
		}
		test.That(t, o.Key(ref.Handle), test.ShouldResemble, ref.Key)
		return true
	})
}

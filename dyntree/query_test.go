package dyntree

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/google/go-cmp/cmp"
	"go.viam.com/test"

	"go.viam.com/spatialindex/logging"
	"go.viam.com/spatialindex/spatialmath"
)

type indexed[B any] struct {
	bounds B
	data   ObjectData
}

func sortedData(found map[ObjectData]struct{}) []ObjectData {
	out := make([]ObjectData, 0, len(found))
	for d := range found {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Instance < out[j].Instance })
	return out
}

func bruteForce[B Bounds[B]](objects map[Handle]indexed[B], region Region[B]) []ObjectData {
	found := map[ObjectData]struct{}{}
	for _, o := range objects {
		if region.Classify(o.bounds) != spatialmath.Outside {
			found[o.data] = struct{}{}
		}
	}
	return sortedData(found)
}

func queried[B Bounds[B]](t *testing.T, tree *Tree[B], region Region[B]) []ObjectData {
	t.Helper()
	found := map[ObjectData]struct{}{}
	test.That(t, tree.Query(region, func(ref ObjectRef[B]) bool {
		_, dup := found[ref.Data]
		test.That(t, dup, test.ShouldBeFalse)
		found[ref.Data] = struct{}{}
		return true
	}), test.ShouldBeTrue)
	return sortedData(found)
}

func TestQueryBoxMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	tree := newTestOctree(t, 5, 0)
	objects := map[Handle]indexed[spatialmath.AABB]{}
	for i := 0; i < 400; i++ {
		b := randomBox(rng, 120, 12)
		b.Min = b.Min.Sub(r3.Vector{X: 10, Y: 10, Z: 10})
		b.Max = b.Max.Sub(r3.Vector{X: 10, Y: 10, Z: 10})
		d := ObjectData{Type: 1, Instance: int32(i)}
		objects[tree.Insert(b, d)] = indexed[spatialmath.AABB]{b, d}
	}
	for h := range objects {
		if rng.Intn(4) == 0 {
			tree.Remove(h)
			delete(objects, h)
		} else if rng.Intn(3) == 0 {
			b := randomBox(rng, 100, 8)
			tree.Update(h, b)
			objects[h] = indexed[spatialmath.AABB]{b, objects[h].data}
		}
	}
	validateTree(t, tree)

	regions := []spatialmath.AABB{
		cube(0, 100),
		cube(-50, 200),
		cube(25, 75),
		box(50, 0, 0, 50, 100, 100),
		spatialmath.PointAABB(r3.Vector{X: 33, Y: 66, Z: 50}),
		cube(110, 130),
	}
	for i := 0; i < 50; i++ {
		regions = append(regions, randomBox(rng, 100, 40))
	}
	for _, region := range regions {
		want := bruteForce[spatialmath.AABB](objects, region)
		got := queried[spatialmath.AABB](t, tree, region)
		test.That(t, cmp.Diff(want, got), test.ShouldBeEmpty)
	}
}

func TestQueryRectMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	root := spatialmath.Rect{Max: r2.Point{X: 256, Y: 256}}
	tree, err := New(root, 8, 1, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, tree.Arity(), test.ShouldEqual, 4)

	randomRect := func(extent, size float64) spatialmath.Rect {
		min := r2.Point{X: rng.Float64() * extent, Y: rng.Float64() * extent}
		return spatialmath.Rect{Min: min, Max: min.Add(r2.Point{X: rng.Float64() * size, Y: rng.Float64() * size})}
	}
	objects := map[Handle]indexed[spatialmath.Rect]{}
	for i := 0; i < 500; i++ {
		r := randomRect(256, 16)
		d := ObjectData{Type: 2, Instance: int32(i)}
		objects[tree.Insert(r, d)] = indexed[spatialmath.Rect]{r, d}
	}
	validateTree(t, tree)

	for i := 0; i < 50; i++ {
		region := randomRect(256, 64)
		want := bruteForce[spatialmath.Rect](objects, region)
		got := queried[spatialmath.Rect](t, tree, region)
		test.That(t, cmp.Diff(want, got), test.ShouldBeEmpty)
	}
	for _, c := range []spatialmath.Circle{
		{Center: r2.Point{X: 128, Y: 128}, Radius: 40},
		{Center: r2.Point{X: 0, Y: 0}, Radius: 10},
		{Center: r2.Point{X: 300, Y: 300}, Radius: 30},
	} {
		want := bruteForce[spatialmath.Rect](objects, c)
		got := queried[spatialmath.Rect](t, tree, c)
		test.That(t, cmp.Diff(want, got), test.ShouldBeEmpty)
	}
}

func TestQueryFrustumRegion(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	tree, err := New(cube(-100, 100), 6, 0, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	objects := map[Handle]indexed[spatialmath.AABB]{}
	for i := 0; i < 400; i++ {
		b := randomBox(rng, 200, 10)
		b.Min = b.Min.Sub(r3.Vector{X: 100, Y: 100, Z: 100})
		b.Max = b.Max.Sub(r3.Vector{X: 100, Y: 100, Z: 100})
		d := ObjectData{Instance: int32(i)}
		objects[tree.Insert(b, d)] = indexed[spatialmath.AABB]{b, d}
	}

	f, err := spatialmath.NewPerspectiveFrustum(
		r3.Vector{}, r3.Vector{X: 1, Y: 0.2, Z: -1}, r3.Vector{Y: 1}, 1.0, 1.5, 1, 120)
	test.That(t, err, test.ShouldBeNil)

	want := bruteForce[spatialmath.AABB](objects, f)
	test.That(t, want, test.ShouldNotBeEmpty)
	test.That(t, len(want), test.ShouldBeLessThan, len(objects))
	got := queried[spatialmath.AABB](t, tree, f)
	test.That(t, cmp.Diff(want, got), test.ShouldBeEmpty)
}

func TestQueryEarlyExit(t *testing.T) {
	tree := newTestOctree(t, 4, 0)
	for i := 0; i < 20; i++ {
		tree.Insert(cube(float64(i), float64(i)+1), ObjectData{Instance: int32(i)})
	}

	visits := 0
	complete := tree.QueryBox(cube(0, 100), func(ObjectRef[spatialmath.AABB]) bool {
		visits++
		return false
	})
	test.That(t, complete, test.ShouldBeFalse)
	test.That(t, visits, test.ShouldEqual, 1)

	visits = 0
	complete = tree.QueryBox(cube(0, 100), func(ObjectRef[spatialmath.AABB]) bool {
		visits++
		return visits < 5
	})
	test.That(t, complete, test.ShouldBeFalse)
	test.That(t, visits, test.ShouldEqual, 5)

	visits = 0
	test.That(t, tree.Ascend(func(ObjectRef[spatialmath.AABB]) bool {
		visits++
		return false
	}), test.ShouldBeFalse)
	test.That(t, visits, test.ShouldEqual, 1)

	test.That(t, tree.QueryBox(cube(0, 100), func(ObjectRef[spatialmath.AABB]) bool { return true }), test.ShouldBeTrue)
}

func TestQueryRefs(t *testing.T) {
	tree := newTestOctree(t, 4, 0)
	h := tree.Insert(cube(10, 12), ObjectData{Type: 3, Instance: 4})
	var refs []ObjectRef[spatialmath.AABB]
	tree.QueryBox(spatialmath.PointAABB(r3.Vector{X: 11, Y: 11, Z: 11}), func(ref ObjectRef[spatialmath.AABB]) bool {
		refs = append(refs, ref)
		return true
	})
	test.That(t, refs, test.ShouldHaveLength, 1)
	test.That(t, refs[0].Handle, test.ShouldResemble, h)
	test.That(t, refs[0].Key, test.ShouldResemble, tree.Key(h))
	test.That(t, refs[0].Data, test.ShouldResemble, ObjectData{Type: 3, Instance: 4})
	test.That(t, refs[0].Bounds, test.ShouldResemble, cube(10, 12))

	// a face shared with the query counts as overlap
	refs = nil
	tree.QueryBox(cube(12, 20), func(ref ObjectRef[spatialmath.AABB]) bool {
		refs = append(refs, ref)
		return true
	})
	test.That(t, refs, test.ShouldHaveLength, 1)
}

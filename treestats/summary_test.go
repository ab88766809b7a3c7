package treestats

import (
	"runtime"
	"strings"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.viam.com/test"

	"go.viam.com/spatialindex/dyntree"
	"go.viam.com/spatialindex/logging"
	"go.viam.com/spatialindex/octree"
	"go.viam.com/spatialindex/spatialmath"
)

func cube(min, max float64) spatialmath.AABB {
	return spatialmath.AABB{Min: r3.Vector{X: min, Y: min, Z: min}, Max: r3.Vector{X: max, Y: max, Z: max}}
}

func newScene(t *testing.T) *octree.Octree {
	t.Helper()
	o, err := octree.New(cube(0, 100), 4, 0, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	o.Insert(cube(10, 12), octree.ObjectData{Instance: 1})
	o.Insert(cube(11, 12), octree.ObjectData{Instance: 2})
	o.Insert(cube(40, 60), octree.ObjectData{Instance: 3})
	return o
}

func TestSummarize(t *testing.T) {
	s, err := SummarizeSource(newScene(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.Nodes, test.ShouldEqual, 5)
	test.That(t, s.Objects, test.ShouldEqual, 3)
	test.That(t, s.Depth, test.ShouldEqual, 4)
	test.That(t, s.RootObjects, test.ShouldEqual, 1)
	test.That(t, s.EmptyNodes, test.ShouldEqual, 3)
	test.That(t, s.MeanOccupancy, test.ShouldAlmostEqual, 0.6)
	test.That(t, s.MedianOccupancy, test.ShouldEqual, 0.0)
	test.That(t, s.MaxOccupancy, test.ShouldEqual, 2.0)
	test.That(t, s.P95Occupancy, test.ShouldBeBetweenOrEqual, s.MedianOccupancy, s.MaxOccupancy)

	_, err = Summarize(dyntree.Stats{})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestTables(t *testing.T) {
	o := newScene(t)
	s, err := SummarizeSource(o)
	test.That(t, err, test.ShouldBeNil)
	out := s.String()
	test.That(t, out, test.ShouldContainSubstring, "Mean occupancy")
	test.That(t, out, test.ShouldContainSubstring, "0.60")

	depths := DepthTable(o.Stats())
	test.That(t, depths, test.ShouldContainSubstring, "TOTAL")
	// header, one row per depth and the footer, each separated by a rule line
	test.That(t, strings.Count(depths, "\n"), test.ShouldBeGreaterThan, 5)

	nodes := NodeTable(o.Nodes, 2)
	test.That(t, nodes, test.ShouldContainSubstring, "0x1")
	test.That(t, nodes, test.ShouldContainSubstring, "0x8")
	test.That(t, nodes, test.ShouldNotContainSubstring, "0x40")
}

func TestCollector(t *testing.T) {
	o := newScene(t)
	c := NewCollector("scene", o)

	reg := prometheus.NewPedanticRegistry()
	test.That(t, reg.Register(c), test.ShouldBeNil)
	// nodes, objects, depth, root objects and one series per depth
	test.That(t, testutil.CollectAndCount(c), test.ShouldEqual, 4+5)

	expected := `
# HELP spatialindex_objects The number of indexed objects.
# TYPE spatialindex_objects gauge
spatialindex_objects{tree="scene"} 3
`
	test.That(t, testutil.CollectAndCompare(c, strings.NewReader(expected), "spatialindex_objects"), test.ShouldBeNil)

	o.RemoveAll()
	test.That(t, testutil.CollectAndCount(c, "spatialindex_depth_objects"), test.ShouldEqual, 1)
}

func TestSelfUsage(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("procfs is only available on linux")
	}
	before, err := SelfUsage()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, before.RssMB, test.ShouldBeGreaterThan, 0)
	after, err := SelfUsage()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, after.Sub(before).UserCPUSecs, test.ShouldBeGreaterThanOrEqualTo, 0)
}

package overlay

import (
	"bytes"
	"image/color"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/spatialindex/logging"
	"go.viam.com/spatialindex/octree"
	"go.viam.com/spatialindex/quadtree"
	"go.viam.com/spatialindex/spatialmath"
)

func TestDrawQuadtree(t *testing.T) {
	q, err := quadtree.New(spatialmath.Rect{Max: r2.Point{X: 100, Y: 100}}, 3, 0, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	h := q.Insert(spatialmath.Rect{Min: r2.Point{X: 10, Y: 10}, Max: r2.Point{X: 20, Y: 20}}, quadtree.ObjectData{Type: 1})
	q.Insert(spatialmath.Rect{Min: r2.Point{X: 60, Y: 10}, Max: r2.Point{X: 70, Y: 20}}, quadtree.ObjectData{Type: 2})

	opts := DefaultOptions()
	opts.Size = 200
	opts.Margin = 0
	opts.Labels = true
	img := DrawQuadtree(q, opts)
	test.That(t, img.Bounds().Dx(), test.ShouldEqual, 200)
	test.That(t, img.Bounds().Dy(), test.ShouldEqual, 200)

	white := color.RGBAModel.Convert(color.White)
	// world (80, 80) is empty, world (15, 15) is covered by the first object
	test.That(t, color.RGBAModel.Convert(img.At(160, 40)), test.ShouldResemble, white)
	test.That(t, color.RGBAModel.Convert(img.At(30, 170)), test.ShouldNotResemble, white)

	opts.Highlight = []quadtree.Handle{h}
	img = DrawQuadtree(q, opts)
	test.That(t, color.RGBAModel.Convert(img.At(30, 170)), test.ShouldResemble, color.RGBA{R: 255, A: 255})
	test.That(t, color.RGBAModel.Convert(img.At(130, 170)), test.ShouldNotResemble, color.RGBA{R: 255, A: 255})

	var buf bytes.Buffer
	test.That(t, EncodePNG(&buf, img), test.ShouldBeNil)
	test.That(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")), test.ShouldBeTrue)
}

func TestDrawOctree(t *testing.T) {
	bounds := spatialmath.AABB{Max: r3.Vector{X: 200, Y: 100, Z: 50}}
	o, err := octree.New(bounds, 4, 0, nil)
	test.That(t, err, test.ShouldBeNil)
	o.Insert(spatialmath.AABB{Min: r3.Vector{X: 150, Y: 60, Z: 0}, Max: r3.Vector{X: 160, Y: 70, Z: 50}}, octree.ObjectData{})

	opts := DefaultOptions()
	opts.Size = 400
	opts.Margin = 10
	opts.Region = spatialmath.Rect{Min: r2.Point{X: 140, Y: 50}, Max: r2.Point{X: 170, Y: 80}}
	img := DrawOctree(o, opts)
	test.That(t, img.Bounds().Dx(), test.ShouldEqual, 400)
	test.That(t, img.Bounds().Dy(), test.ShouldEqual, 210)
	// the object seen from above, at world (155, 65)
	test.That(t, color.RGBAModel.Convert(img.At(10+155*380/200, 200-65*380/200)), test.ShouldNotResemble, color.RGBAModel.Convert(color.White))
}

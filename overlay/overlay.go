// Package overlay renders the node layout and the objects of a spatial index to an image, which
// is the quickest way to see why a tree is deeper or busier at the root than expected.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/golang/geo/r2"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font/gofont/goregular"

	"go.viam.com/spatialindex/dyntree"
	"go.viam.com/spatialindex/octree"
	"go.viam.com/spatialindex/quadtree"
	"go.viam.com/spatialindex/spatialmath"
)

var font *truetype.Font

func init() {
	var err error
	font, err = truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
}

// Options controls rendering.
type Options struct {
	// Size is the length of the longer image side in pixels.
	Size int
	// Margin is left blank around the tree's bounds, in pixels.
	Margin float64
	// Labels draws the cell key of every node.
	Labels bool
	// Highlight lists objects drawn in HighlightColor, typically the result of a query.
	Highlight []dyntree.Handle
	// Region is outlined when it is not empty, typically the query region.
	Region         spatialmath.Rect
	Background     color.Color
	HighlightColor color.Color
}

// DefaultOptions returns the options used by the command line tools.
func DefaultOptions() Options {
	return Options{
		Size:           1024,
		Margin:         16,
		Background:     color.White,
		HighlightColor: color.RGBA{R: 255, A: 255},
	}
}

// DrawQuadtree renders q.
func DrawQuadtree(q *quadtree.Quadtree, opts Options) image.Image {
	return draw(q.Tree, func(r spatialmath.Rect) spatialmath.Rect { return r }, opts)
}

// DrawOctree renders o seen from above, every box projected onto the XY plane.
func DrawOctree(o *octree.Octree, opts Options) image.Image {
	return draw(o.Tree, spatialmath.AABB.XY, opts)
}

// EncodePNG writes img to w as a PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

// canvas maps world coordinates to pixels with Y pointing up.
type canvas struct {
	dc     *gg.Context
	extent spatialmath.Rect
	scale  float64
	margin float64
}

func newCanvas(extent spatialmath.Rect, opts Options) *canvas {
	w, h := extent.Max.X-extent.Min.X, extent.Max.Y-extent.Min.Y
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	inner := float64(opts.Size) - 2*opts.Margin
	if inner < 1 {
		inner = 1
	}
	scale := inner / math.Max(w, h)
	width := int(math.Ceil(w*scale + 2*opts.Margin))
	height := int(math.Ceil(h*scale + 2*opts.Margin))
	return &canvas{dc: gg.NewContext(width, height), extent: extent, scale: scale, margin: opts.Margin}
}

func (c *canvas) point(p r2.Point) (float64, float64) {
	x := c.margin + (p.X-c.extent.Min.X)*c.scale
	y := float64(c.dc.Height()) - c.margin - (p.Y-c.extent.Min.Y)*c.scale
	return x, y
}

func (c *canvas) rect(r spatialmath.Rect) {
	x0, y0 := c.point(r.Min)
	x1, y1 := c.point(r.Max)
	c.dc.DrawRectangle(x0, y1, math.Max(x1-x0, 1), math.Max(y0-y1, 1))
}

func depthColor(depth, maxDepth int) color.Color {
	return colorful.Hsv(float64(depth)*300/float64(maxDepth+1), 0.6, 0.7)
}

func typeColor(objectType int32) color.Color {
	c := colorful.Hsv(math.Mod(float64(objectType)*137.5, 360), 0.5, 0.9)
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 160}
}

func draw[B dyntree.Bounds[B]](tree *dyntree.Tree[B], project func(B) spatialmath.Rect, opts Options) image.Image {
	if opts.Size <= 0 {
		opts.Size = DefaultOptions().Size
	}
	if opts.Background == nil {
		opts.Background = color.White
	}
	if opts.HighlightColor == nil {
		opts.HighlightColor = DefaultOptions().HighlightColor
	}

	c := newCanvas(project(tree.Bounds()), opts)
	c.dc.SetColor(opts.Background)
	c.dc.Clear()

	tree.Ascend(func(ref dyntree.ObjectRef[B]) bool {
		c.rect(project(ref.Bounds))
		c.dc.SetColor(typeColor(ref.Data.Type))
		c.dc.Fill()
		return true
	})

	c.dc.SetFontFace(truetype.NewFace(font, &truetype.Options{Size: 10}))
	tree.Nodes(func(info dyntree.NodeInfo[B]) bool {
		r := project(info.Bounds)
		c.rect(r)
		c.dc.SetColor(depthColor(info.Depth, tree.MaxDepth()))
		c.dc.SetLineWidth(math.Max(1, 3-float64(info.Depth)/2))
		c.dc.Stroke()
		if opts.Labels {
			x, y := c.point(r2.Point{X: r.Min.X, Y: r.Max.Y})
			c.dc.DrawString(fmt.Sprintf("%#x", info.CellKey), x+2, y+12)
		}
		return true
	})

	for _, h := range opts.Highlight {
		if !tree.IsValid(h) {
			continue
		}
		c.rect(project(tree.ObjectBounds(h)))
		c.dc.SetColor(opts.HighlightColor)
		c.dc.Fill()
	}

	if opts.Region != (spatialmath.Rect{}) {
		c.rect(opts.Region)
		c.dc.SetColor(opts.HighlightColor)
		c.dc.SetDash(6, 4)
		c.dc.SetLineWidth(2)
		c.dc.Stroke()
		c.dc.SetDash()
	}
	return c.dc.Image()
}

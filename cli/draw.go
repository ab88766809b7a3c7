package cli

import (
	"image"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"go.viam.com/spatialindex/config"
	"go.viam.com/spatialindex/overlay"
	"go.viam.com/spatialindex/spatialmath"
)

// DrawAction is the corresponding Action for 'draw'.
func DrawAction(c *cli.Context) (err error) {
	_, scene, logger, err := loadScene(c)
	if err != nil {
		return err
	}

	opts := overlay.DefaultOptions()
	opts.Size = c.Int(drawFlagSize)
	opts.Labels = c.Bool(drawFlagLabels)
	for _, name := range c.StringSlice(drawFlagHighlight) {
		h, ok := scene.Handle(name)
		if !ok {
			return errors.Errorf("no object named %q", name)
		}
		opts.Highlight = append(opts.Highlight, h)
	}
	if c.IsSet(queryFlagMin) || c.IsSet(queryFlagMax) {
		minCoords, maxCoords := c.Float64Slice(queryFlagMin), c.Float64Slice(queryFlagMax)
		if _, err := scene.QueryBox(minCoords, maxCoords, func(h config.Hit) bool {
			opts.Highlight = append(opts.Highlight, h.Handle)
			return true
		}); err != nil {
			return err
		}
		opts.Region, err = regionOutline(scene.Kind, minCoords, maxCoords)
		if err != nil {
			return err
		}
	}

	var img image.Image
	if scene.Octree != nil {
		img = overlay.DrawOctree(scene.Octree, opts)
	} else {
		img = overlay.DrawQuadtree(scene.Quadtree, opts)
	}

	path := c.Path(drawFlagOut)
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	if err := overlay.EncodePNG(f, img); err != nil {
		return errors.Wrapf(err, "cannot write %q", path)
	}
	logger.Debugw("drew scene", "path", path, "highlighted", len(opts.Highlight))
	printf(c.App.Writer, "wrote %dx%d image to %s", img.Bounds().Dx(), img.Bounds().Dy(), path)
	return nil
}

// regionOutline returns the query box as seen from above.
func regionOutline(kind config.Kind, minCoords, maxCoords []float64) (spatialmath.Rect, error) {
	if kind == config.KindQuadtree {
		return config.Rect(minCoords, maxCoords)
	}
	b, err := config.AABB(minCoords, maxCoords)
	if err != nil {
		return spatialmath.Rect{}, err
	}
	return b.XY(), nil
}

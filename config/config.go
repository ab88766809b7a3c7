// Package config describes a spatial index and the objects to preload into it as JSON, and builds
// the described index. It backs the spatialindex command line tool and tests that want a scene
// without writing the inserts by hand.
package config

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/spatialindex/dyntree"
	"go.viam.com/spatialindex/logging"
	"go.viam.com/spatialindex/octree"
	"go.viam.com/spatialindex/quadtree"
	"go.viam.com/spatialindex/spatialmath"
)

// Kind selects the tree variant.
type Kind string

// The supported tree variants.
const (
	KindOctree   Kind = "octree"
	KindQuadtree Kind = "quadtree"
)

// Dimensions returns the number of coordinates a point of this kind has, or 0 for unknown kinds.
func (k Kind) Dimensions() int {
	switch k {
	case KindOctree:
		return 3
	case KindQuadtree:
		return 2
	default:
		return 0
	}
}

func (k Kind) arity() int {
	return 1 << k.Dimensions()
}

// Config describes an index and the objects it starts with.
type Config struct {
	Kind Kind      `json:"kind" jsonschema:"enum=octree,enum=quadtree"`
	Min  []float64 `json:"min" jsonschema:"minItems=2,maxItems=3"`
	Max  []float64 `json:"max" jsonschema:"minItems=2,maxItems=3"`
	// MaxDepth defaults to the tree package's DefaultMaxDepth when omitted.
	MaxDepth    *int    `json:"max_depth,omitempty"`
	MinNodeSize float64 `json:"min_node_size,omitempty"`
	// HeightSpan is the [min, max] Z interval quadtree objects cover when culled against a frustum.
	HeightSpan []float64      `json:"height_span,omitempty" jsonschema:"minItems=2,maxItems=2"`
	Objects    []ObjectConfig `json:"objects,omitempty"`
	Camera     *CameraConfig  `json:"camera,omitempty"`
	// Log sets logger levels by name pattern, e.g. {"pattern": "spatialindex.scene.*", "level": "debug"}.
	Log []logging.LoggerPatternConfig `json:"log,omitempty"`

	// ConfigFilePath is where the config was read from, if it was read from a file.
	ConfigFilePath string `json:"-"`
}

// ObjectConfig is an object to insert.
type ObjectConfig struct {
	Name     string    `json:"name"`
	Type     int32     `json:"type"`
	Instance int32     `json:"instance"`
	Min      []float64 `json:"min"`
	Max      []float64 `json:"max"`
}

// CameraConfig describes a perspective camera used for frustum queries.
type CameraConfig struct {
	Eye    []float64 `json:"eye"`
	Target []float64 `json:"target"`
	// Up defaults to +Z.
	Up []float64 `json:"up,omitempty"`
	// FOV is the vertical field of view in degrees.
	FOV    float64 `json:"fov_degs"`
	Aspect float64 `json:"aspect,omitempty"`
	Near   float64 `json:"near"`
	Far    float64 `json:"far"`
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	dims := cfg.Kind.Dimensions()
	switch {
	case cfg.Kind == "":
		return utils.NewConfigValidationFieldRequiredError(path, "kind")
	case dims == 0:
		return utils.NewConfigValidationError(path, errors.Errorf("unknown kind %q, expected %q or %q", cfg.Kind, KindOctree, KindQuadtree))
	case cfg.Min == nil:
		return utils.NewConfigValidationFieldRequiredError(path, "min")
	case cfg.Max == nil:
		return utils.NewConfigValidationFieldRequiredError(path, "max")
	}

	var errs error
	if err := validateBounds(cfg.Min, cfg.Max, dims); err != nil {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path, err))
	}
	if cfg.MaxDepth != nil {
		limit := dyntree.MaxDepthLimit(cfg.Kind.arity())
		if *cfg.MaxDepth < 0 || *cfg.MaxDepth > limit {
			errs = multierr.Append(errs, utils.NewConfigValidationError(path,
				errors.Errorf("max_depth %d must be between 0 and %d", *cfg.MaxDepth, limit)))
		}
	}
	if !(cfg.MinNodeSize >= 0) || math.IsInf(cfg.MinNodeSize, 1) {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path,
			errors.Errorf("min_node_size %v must be a non-negative number", cfg.MinNodeSize)))
	}
	if cfg.HeightSpan != nil {
		if cfg.Kind != KindQuadtree {
			errs = multierr.Append(errs, utils.NewConfigValidationError(path, errors.New("height_span only applies to quadtrees")))
		} else if len(cfg.HeightSpan) != 2 {
			errs = multierr.Append(errs, utils.NewConfigValidationError(path, errors.New("height_span needs a min and a max")))
		} else if err := validateBounds(cfg.HeightSpan[:1], cfg.HeightSpan[1:], 1); err != nil {
			errs = multierr.Append(errs, utils.NewConfigValidationError(path, errors.Wrap(err, "height_span")))
		}
	}

	names := map[string]struct{}{}
	for i, obj := range cfg.Objects {
		objPath := joinPath(path, fmt.Sprintf("objects.%d", i))
		if err := obj.Validate(objPath, dims); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if _, dup := names[obj.Name]; dup {
			errs = multierr.Append(errs, utils.NewConfigValidationError(objPath, errors.Errorf("duplicate object name %q", obj.Name)))
		}
		names[obj.Name] = struct{}{}
	}
	if cfg.Camera != nil {
		if err := cfg.Camera.Validate(joinPath(path, "camera")); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	for i, lpc := range cfg.Log {
		if _, err := logging.ParseLoggerPatternConfig(lpc.Pattern + "=" + lpc.Level); err != nil {
			errs = multierr.Append(errs, utils.NewConfigValidationError(joinPath(path, fmt.Sprintf("log.%d", i)), err))
		}
	}
	return errs
}

// Validate ensures the object has a name and bounds with dims coordinates.
func (obj *ObjectConfig) Validate(path string, dims int) error {
	if obj.Name == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "name")
	}
	if err := validateBounds(obj.Min, obj.Max, dims); err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	return nil
}

// Validate ensures the camera describes a usable perspective projection.
func (cam *CameraConfig) Validate(path string) error {
	if _, err := cam.Frustum(); err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	return nil
}

// Frustum returns the view frustum of the camera.
func (cam *CameraConfig) Frustum() (spatialmath.Frustum, error) {
	var errs error
	eye, err := vector(cam.Eye)
	errs = multierr.Append(errs, errors.Wrap(err, "eye"))
	target, err := vector(cam.Target)
	errs = multierr.Append(errs, errors.Wrap(err, "target"))
	up := r3.Vector{Z: 1}
	if cam.Up != nil {
		up, err = vector(cam.Up)
		errs = multierr.Append(errs, errors.Wrap(err, "up"))
	}
	if errs != nil {
		return spatialmath.Frustum{}, errs
	}
	aspect := cam.Aspect
	if aspect == 0 {
		aspect = 1
	}
	return spatialmath.NewPerspectiveFrustum(eye, target, up, cam.FOV*math.Pi/180, aspect, cam.Near, cam.Far)
}

// EffectiveMaxDepth returns the configured max depth or the default of the configured kind.
func (cfg *Config) EffectiveMaxDepth() int {
	if cfg.MaxDepth != nil {
		return *cfg.MaxDepth
	}
	if cfg.Kind == KindQuadtree {
		return quadtree.DefaultMaxDepth
	}
	return octree.DefaultMaxDepth
}

// AABB returns the bounds of a 3-D config as a box.
func AABB(minCoords, maxCoords []float64) (spatialmath.AABB, error) {
	lo, err := vector(minCoords)
	if err != nil {
		return spatialmath.AABB{}, err
	}
	hi, err := vector(maxCoords)
	if err != nil {
		return spatialmath.AABB{}, err
	}
	return spatialmath.NewAABB(lo, hi)
}

// Rect returns the bounds of a 2-D config as a rectangle.
func Rect(minCoords, maxCoords []float64) (spatialmath.Rect, error) {
	if len(minCoords) != 2 || len(maxCoords) != 2 {
		return spatialmath.Rect{}, errors.Errorf("expected 2 coordinates, got %d and %d", len(minCoords), len(maxCoords))
	}
	return spatialmath.NewRect(
		r2.Point{X: minCoords[0], Y: minCoords[1]},
		r2.Point{X: maxCoords[0], Y: maxCoords[1]},
	)
}

func vector(coords []float64) (r3.Vector, error) {
	if len(coords) != 3 {
		return r3.Vector{}, errors.Errorf("expected 3 coordinates, got %d", len(coords))
	}
	return r3.Vector{X: coords[0], Y: coords[1], Z: coords[2]}, nil
}

func validateBounds(minCoords, maxCoords []float64, dims int) error {
	if len(minCoords) != dims || len(maxCoords) != dims {
		return errors.Errorf("bounds need %d coordinates, got %d and %d", dims, len(minCoords), len(maxCoords))
	}
	for i := range minCoords {
		lo, hi := minCoords[i], maxCoords[i]
		if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
			return errors.Wrapf(spatialmath.ErrInvalidBounds, "coordinate %d is not finite", i)
		}
		if lo > hi {
			return errors.Wrapf(spatialmath.ErrInvalidBounds, "min %.2f exceeds max %.2f on coordinate %d", lo, hi, i)
		}
	}
	return nil
}

func joinPath(path, field string) string {
	if path == "" {
		return field
	}
	return path + "." + field
}

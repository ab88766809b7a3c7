package config

import (
	"github.com/pkg/errors"

	"go.viam.com/spatialindex/dyntree"
	"go.viam.com/spatialindex/logging"
	"go.viam.com/spatialindex/octree"
	"go.viam.com/spatialindex/quadtree"
	"go.viam.com/spatialindex/spatialmath"
)

// Scene is an index built from a Config. Objects are addressed by their configured names. Exactly
// one of Octree and Quadtree is set, depending on the configured kind.
type Scene struct {
	Kind     Kind
	Octree   *octree.Octree
	Quadtree *quadtree.Quadtree

	logger  logging.Logger
	handles map[string]dyntree.Handle
	names   map[dyntree.Handle]string
}

// Hit is an object found by a scene query.
type Hit struct {
	Name   string
	Handle dyntree.Handle
	Key    dyntree.Key
	Data   dyntree.ObjectData
	Bounds string
}

// Build validates the config, creates the index it describes and inserts its objects.
func (cfg *Config) Build(logger logging.Logger) (*Scene, error) {
	if logger == nil {
		logger = logging.NewBlankLogger("scene")
	}
	if err := cfg.Validate(""); err != nil {
		return nil, err
	}
	s := &Scene{
		Kind:    cfg.Kind,
		logger:  logger,
		handles: map[string]dyntree.Handle{},
		names:   map[dyntree.Handle]string{},
	}
	switch cfg.Kind {
	case KindOctree:
		bounds, err := AABB(cfg.Min, cfg.Max)
		if err != nil {
			return nil, err
		}
		if s.Octree, err = octree.New(bounds, cfg.EffectiveMaxDepth(), cfg.MinNodeSize, logger.Sublogger("octree")); err != nil {
			return nil, err
		}
	case KindQuadtree:
		bounds, err := Rect(cfg.Min, cfg.Max)
		if err != nil {
			return nil, err
		}
		if s.Quadtree, err = quadtree.New(bounds, cfg.EffectiveMaxDepth(), cfg.MinNodeSize, logger.Sublogger("quadtree")); err != nil {
			return nil, err
		}
		if cfg.HeightSpan != nil {
			if err := s.Quadtree.SetHeightSpan(cfg.HeightSpan[0], cfg.HeightSpan[1]); err != nil {
				return nil, err
			}
		}
	}
	for _, obj := range cfg.Objects {
		if err := s.Insert(obj); err != nil {
			return nil, err
		}
	}
	logger.Debugw("built scene", "kind", cfg.Kind, "objects", len(cfg.Objects))
	return s, nil
}

// Insert adds a named object.
func (s *Scene) Insert(obj ObjectConfig) error {
	if _, ok := s.handles[obj.Name]; ok {
		return errors.Errorf("object %q already exists", obj.Name)
	}
	if err := obj.Validate("", s.Kind.Dimensions()); err != nil {
		return err
	}
	data := dyntree.ObjectData{Type: obj.Type, Instance: obj.Instance}
	var h dyntree.Handle
	if s.Octree != nil {
		b, err := AABB(obj.Min, obj.Max)
		if err != nil {
			return err
		}
		h = s.Octree.Insert(b, data)
	} else {
		r, err := Rect(obj.Min, obj.Max)
		if err != nil {
			return err
		}
		h = s.Quadtree.Insert(r, data)
	}
	s.handles[obj.Name] = h
	s.names[h] = obj.Name
	return nil
}

// Remove deletes a named object.
func (s *Scene) Remove(name string) error {
	h, ok := s.handles[name]
	if !ok {
		return errors.Errorf("no object named %q", name)
	}
	if s.Octree != nil {
		s.Octree.Remove(h)
	} else {
		s.Quadtree.Remove(h)
	}
	delete(s.handles, name)
	delete(s.names, h)
	return nil
}

// Update moves a named object to the bounds in obj. The object's type and instance are replaced
// by removing and reinserting it when they changed.
func (s *Scene) Update(obj ObjectConfig) error {
	h, ok := s.handles[obj.Name]
	if !ok {
		return errors.Errorf("no object named %q", obj.Name)
	}
	if err := obj.Validate("", s.Kind.Dimensions()); err != nil {
		return err
	}
	data := dyntree.ObjectData{Type: obj.Type, Instance: obj.Instance}
	if s.get(h) != data {
		if err := s.Remove(obj.Name); err != nil {
			return err
		}
		return s.Insert(obj)
	}
	if s.Octree != nil {
		b, err := AABB(obj.Min, obj.Max)
		if err != nil {
			return err
		}
		s.Octree.Update(h, b)
		return nil
	}
	r, err := Rect(obj.Min, obj.Max)
	if err != nil {
		return err
	}
	s.Quadtree.Update(h, r)
	return nil
}

// Handle returns the handle of a named object.
func (s *Scene) Handle(name string) (dyntree.Handle, bool) {
	h, ok := s.handles[name]
	return h, ok
}

// Name returns the name of the object denoted by h.
func (s *Scene) Name(h dyntree.Handle) string {
	return s.names[h]
}

// Len returns the number of objects in the scene.
func (s *Scene) Len() int {
	return len(s.handles)
}

// Stats reports the shape of the underlying tree.
func (s *Scene) Stats() dyntree.Stats {
	if s.Octree != nil {
		return s.Octree.Stats()
	}
	return s.Quadtree.Stats()
}

// QueryBox visits the objects intersecting the box given by its corners, which need as many
// coordinates as the scene has dimensions.
func (s *Scene) QueryBox(minCoords, maxCoords []float64, visit func(Hit) bool) (bool, error) {
	if s.Octree != nil {
		b, err := AABB(minCoords, maxCoords)
		if err != nil {
			return false, errors.Wrap(err, "invalid query box")
		}
		return s.Octree.QueryBox(b, octreeVisitor(s, visit)), nil
	}
	r, err := Rect(minCoords, maxCoords)
	if err != nil {
		return false, errors.Wrap(err, "invalid query rectangle")
	}
	return s.Quadtree.QueryBox(r, quadtreeVisitor(s, visit)), nil
}

// QueryFrustum visits the objects inside the camera's view.
func (s *Scene) QueryFrustum(f spatialmath.Frustum, visit func(Hit) bool) bool {
	if s.Octree != nil {
		return s.Octree.QueryFrustum(f, octreeVisitor(s, visit))
	}
	return s.Quadtree.QueryFrustum(f, quadtreeVisitor(s, visit))
}

// Ascend visits every object in key order.
func (s *Scene) Ascend(visit func(Hit) bool) bool {
	if s.Octree != nil {
		return s.Octree.Ascend(octreeVisitor(s, visit))
	}
	return s.Quadtree.Ascend(quadtreeVisitor(s, visit))
}

func (s *Scene) get(h dyntree.Handle) dyntree.ObjectData {
	if s.Octree != nil {
		return s.Octree.Get(h)
	}
	return s.Quadtree.Get(h)
}

func octreeVisitor(s *Scene, visit func(Hit) bool) octree.Visitor {
	return func(ref octree.ObjectRef) bool {
		return visit(Hit{Name: s.names[ref.Handle], Handle: ref.Handle, Key: ref.Key, Data: ref.Data, Bounds: ref.Bounds.String()})
	}
}

func quadtreeVisitor(s *Scene, visit func(Hit) bool) quadtree.Visitor {
	return func(ref quadtree.ObjectRef) bool {
		return visit(Hit{Name: s.names[ref.Handle], Handle: ref.Handle, Key: ref.Key, Data: ref.Data, Bounds: ref.Bounds.String()})
	}
}

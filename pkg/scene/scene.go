// Package scene holds the solids items are placed onto and answers ray
// queries against them. Objects are indexed in an R-tree by bounding box;
// rays are tested against the solids whose boxes the ray's own box touches.
package scene

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/dhconnelly/rtreego"

	"github.com/chazu/brushline/pkg/geom"
	"github.com/chazu/brushline/pkg/kernel"
	"github.com/chazu/brushline/pkg/surface"
)

// Sentinel errors.
var (
	ErrEmptyName       = errors.New("object name is empty")
	ErrDuplicateObject = errors.New("duplicate object name")
	ErrNoSolid         = errors.New("object has no solid")
)

// Compile-time interface checks.
var (
	_ surface.Query        = (*Scene)(nil)
	_ surface.LayerSampler = (*Scene)(nil)
	_ surface.Object       = (*Object)(nil)
)

// boundsPad keeps degenerate boxes (flat sheets, vertical rays) non-empty
// for the R-tree.
const boundsPad = 1e-6

const (
	// maxEntries caps the surface entries one object reports for a ray.
	maxEntries = 8
	// reentryStep restarts a ray this far past an entry, inside the solid.
	reentryStep = 1e-4
)

// Object is a named solid in the scene.
type Object struct {
	name   string
	tag    string
	hidden bool
	solid  kernel.Solid
	layers *LayerMap

	min, max geom.Vec3
	rect     rtreego.Rect
	seq      int // insertion counter, breaks distance ties
}

// ObjectOption configures an Object on Add.
type ObjectOption func(*Object)

// Hidden marks the object invisible.
func Hidden() ObjectOption {
	return func(o *Object) { o.hidden = true }
}

// WithLayers attaches terrain paint layers to the object.
func WithLayers(m *LayerMap) ObjectOption {
	return func(o *Object) { o.layers = m }
}

func (o *Object) ID() string          { return o.name }
func (o *Object) Tag() string         { return o.tag }
func (o *Object) Visible() bool       { return !o.hidden }
func (o *Object) Terrain() bool       { return o.layers != nil }
func (o *Object) Solid() kernel.Solid { return o.solid }
func (o *Object) Layers() *LayerMap   { return o.layers }

// Local maps a world point into the object's box frame, with the minimum
// corner at the origin.
func (o *Object) Local(world geom.Vec3) geom.Vec3 {
	return world.Sub(o.min)
}

// Bounds implements rtreego.Spatial.
func (o *Object) Bounds() rtreego.Rect {
	return o.rect
}

// Scene is a set of uniquely named objects.
type Scene struct {
	kernel  kernel.Kernel
	tree    *rtreego.Rtree
	objects map[string]*Object
	order   []*Object
	seq     int
}

// New returns an empty scene whose rays are answered by k.
func New(k kernel.Kernel) *Scene {
	return &Scene{
		kernel:  k,
		tree:    rtreego.NewTree(3, 2, 8),
		objects: make(map[string]*Object),
	}
}

// Add inserts a solid under a unique name.
func (s *Scene) Add(name, tag string, solid kernel.Solid, opts ...ObjectOption) (*Object, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if solid == nil {
		return nil, fmt.Errorf("add %q: %w", name, ErrNoSolid)
	}
	if _, ok := s.objects[name]; ok {
		return nil, fmt.Errorf("add %q: %w", name, ErrDuplicateObject)
	}
	o := &Object{name: name, tag: tag, solid: solid, seq: s.seq}
	for _, opt := range opts {
		opt(o)
	}
	o.min, o.max = solid.BoundingBox()
	r, err := rect(o.min, o.max)
	if err != nil {
		return nil, fmt.Errorf("add %q: %w", name, err)
	}
	o.rect = r

	s.tree.Insert(o)
	s.objects[name] = o
	s.order = append(s.order, o)
	s.seq++
	return o, nil
}

// Remove deletes the named object. It reports whether the object existed.
func (s *Scene) Remove(name string) bool {
	o, ok := s.objects[name]
	if !ok {
		return false
	}
	s.tree.Delete(o)
	delete(s.objects, name)
	s.order = slices.DeleteFunc(s.order, func(x *Object) bool { return x == o })
	return true
}

// Object returns the named object.
func (s *Scene) Object(name string) (*Object, bool) {
	o, ok := s.objects[name]
	return o, ok
}

// Objects returns the objects in insertion order.
func (s *Scene) Objects() []*Object {
	return slices.Clone(s.order)
}

// Len returns the number of objects.
func (s *Scene) Len() int {
	return len(s.order)
}

// Projector returns a surface projector over the scene.
func (s *Scene) Projector(maxDistance float64) *surface.Projector {
	return &surface.Projector{Query: s, Layers: s, MaxDistance: maxDistance}
}

// Intersect returns every surface entry of the ray within maxDistance,
// nearest first. An object the ray enters more than once (overhangs, stacked
// or concave solids) reports each entry, up to maxEntries. Ties keep
// insertion order.
func (s *Scene) Intersect(ray geom.Ray, maxDistance float64) []surface.Hit {
	dir := ray.Direction.Normalize()
	if dir.IsZero() || maxDistance <= 0 || s.kernel == nil {
		return nil
	}
	ray.Direction = dir

	end := ray.At(maxDistance)
	box, err := rect(ray.Origin.Min(end), ray.Origin.Max(end))
	if err != nil {
		return nil
	}

	var hits []surface.Hit
	for _, sp := range s.tree.SearchIntersect(box) {
		hits = append(hits, s.entries(sp.(*Object), ray, maxDistance)...)
	}
	slices.SortStableFunc(hits, func(a, b surface.Hit) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return cmp.Compare(a.Object.(*Object).seq, b.Object.(*Object).seq)
	})
	return hits
}

// entries casts ray against o repeatedly. Each cast restarts just inside the
// previous entry; the kernel then marches out of the solid and reports the
// next entry, if any.
func (s *Scene) entries(o *Object, ray geom.Ray, maxDistance float64) []surface.Hit {
	var out []surface.Hit
	for offset := 0.0; len(out) < maxEntries && offset < maxDistance; {
		r := geom.Ray{Origin: ray.At(offset), Direction: ray.Direction}
		rh, ok := s.kernel.Raycast(o.solid, r, maxDistance-offset)
		if !ok {
			break
		}
		d := offset + rh.Distance
		out = append(out, surface.Hit{Point: rh.Point, Normal: rh.Normal, Distance: d, Object: o})
		offset = d + reentryStep
	}
	return out
}

// LayerWeights samples the terrain layers of obj at a point in its local
// frame. Objects without layers report a single full-weight base layer.
func (s *Scene) LayerWeights(obj surface.Object, local geom.Vec3) []float64 {
	o, ok := obj.(*Object)
	if !ok || o.layers == nil {
		return []float64{1}
	}
	size := o.max.Sub(o.min)
	var u, v float64
	if size.X > 0 {
		u = local.X / size.X
	}
	if size.Z > 0 {
		v = local.Z / size.Z
	}
	return o.layers.Weights(u, v)
}

// rect builds a padded R-tree rectangle from box corners.
func rect(min, max geom.Vec3) (rtreego.Rect, error) {
	pad := geom.V(boundsPad, boundsPad, boundsPad)
	lo, hi := min.Sub(pad), max.Add(pad)
	return rtreego.NewRectFromPoints(
		rtreego.Point{lo.X, lo.Y, lo.Z},
		rtreego.Point{hi.X, hi.Y, hi.Z},
	)
}

// Package surface projects points onto scene geometry along a ray and picks
// the hit a placement should land on.
package surface

import (
	"math"

	"github.com/chazu/brushline/pkg/geom"
)

// DefaultMaxDistance bounds a projection ray when the projector has none set.
const DefaultMaxDistance = 1e4

// Object is the minimal view of a scene object the projector filters on.
type Object interface {
	ID() string
	Tag() string
	Visible() bool
	// Terrain reports whether the object carries layer weight maps.
	Terrain() bool
	// Local converts a world point into the object's local frame.
	Local(world geom.Vec3) geom.Vec3
}

// Hit is one ray/geometry contact.
type Hit struct {
	Point    geom.Vec3 `json:"point"`
	Normal   geom.Vec3 `json:"normal"`
	Distance float64   `json:"distance"`
	Object   Object    `json:"-"`
}

// Query returns every contact of a ray with the scene, in any order.
type Query interface {
	Intersect(ray geom.Ray, maxDistance float64) []Hit
}

// LayerSampler returns the per-layer paint weights of a terrain at a point in
// the terrain's local frame. Weights are in [0, 1]; index 0 is the base layer.
type LayerSampler interface {
	LayerWeights(obj Object, local geom.Vec3) []float64
}

// Filters restrict which hits count as a surface.
type Filters struct {
	// Tags, when non-empty, admits only objects whose tag is listed.
	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty" toml:"tags,omitempty"`
	// Exclude drops objects by ID (usually the prefabs just placed).
	Exclude []string `json:"exclude,omitempty" yaml:"exclude,omitempty" toml:"exclude,omitempty"`
	// InvisibleTransparent lets rays pass through hidden objects.
	InvisibleTransparent bool `json:"invisible_transparent" yaml:"invisible_transparent" toml:"invisible_transparent"`
	// TerrainLayers, when non-empty, admits terrain hits only where the
	// dominant layer is listed. Non-terrain hits are unaffected.
	TerrainLayers []int `json:"terrain_layers,omitempty" yaml:"terrain_layers,omitempty" toml:"terrain_layers,omitempty"`
}

// Projector casts a ray into a scene and reports the nearest admissible hit.
type Projector struct {
	Query       Query
	Layers      LayerSampler // optional; required only for TerrainLayers filtering
	MaxDistance float64
}

// Project returns the closest hit along ray that passes f. Ties keep the
// hit reported first by the query.
func (p *Projector) Project(ray geom.Ray, f Filters) (Hit, bool) {
	if p == nil || p.Query == nil {
		return Hit{}, false
	}
	maxDist := p.MaxDistance
	if maxDist <= 0 {
		maxDist = DefaultMaxDistance
	}
	ray.Direction = ray.Direction.Normalize()
	if ray.Direction.IsZero() {
		return Hit{}, false
	}

	best, found := Hit{Distance: math.Inf(1)}, false
	for _, h := range p.Query.Intersect(ray, maxDist) {
		if h.Distance < 0 || h.Distance > maxDist || h.Distance >= best.Distance {
			continue
		}
		if !p.admits(h, f) {
			continue
		}
		best, found = h, true
	}
	return best, found
}

func (p *Projector) admits(h Hit, f Filters) bool {
	obj := h.Object
	if obj == nil {
		return len(f.Tags) == 0 && len(f.TerrainLayers) == 0
	}
	if f.InvisibleTransparent && !obj.Visible() {
		return false
	}
	if contains(f.Exclude, obj.ID()) {
		return false
	}
	if len(f.Tags) > 0 && !contains(f.Tags, obj.Tag()) {
		return false
	}
	if len(f.TerrainLayers) > 0 && obj.Terrain() {
		if p.Layers == nil {
			return false
		}
		layer := DominantLayer(p.Layers.LayerWeights(obj, obj.Local(h.Point)))
		found := false
		for _, l := range f.TerrainLayers {
			if l == layer {
				found = true
				break
			}
		}
		return found
	}
	return true
}

// DominantLayer returns the first layer above the base whose weight exceeds
// one half, or 0 when none does.
func DominantLayer(weights []float64) int {
	for i := 1; i < len(weights); i++ {
		if weights[i] > 0.5 {
			return i
		}
	}
	return 0
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

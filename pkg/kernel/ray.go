package kernel

import (
	"math"

	"github.com/chazu/brushline/pkg/geom"
)

// RayHit is the first contact of a ray with a solid's surface.
type RayHit struct {
	Point    geom.Vec3 `json:"point"`
	Normal   geom.Vec3 `json:"normal"` // outward unit normal
	Distance float64   `json:"distance"`
}

// ClipBox intersects a ray with the axis-aligned box [min, max] and returns
// the parametric entry and exit distances. Rays starting inside the box get
// a negative entry. ok is false when the ray misses the box or the box lies
// entirely behind the origin.
func ClipBox(ray geom.Ray, min, max geom.Vec3) (enter, exit float64, ok bool) {
	enter, exit = math.Inf(-1), math.Inf(1)
	for _, a := range []geom.Axis{geom.AxisX, geom.AxisY, geom.AxisZ} {
		o, d := ray.Origin.Component(a), ray.Direction.Component(a)
		lo, hi := min.Component(a), max.Component(a)
		if math.Abs(d) < geom.Epsilon {
			if o < lo || o > hi {
				return 0, 0, false
			}
			continue
		}
		t0, t1 := (lo-o)/d, (hi-o)/d
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		enter = math.Max(enter, t0)
		exit = math.Min(exit, t1)
		if enter > exit {
			return 0, 0, false
		}
	}
	if exit < 0 {
		return 0, 0, false
	}
	return enter, exit, true
}

// Bounds is the union of the bounding boxes of solids.
func Bounds(solids ...Solid) (min, max geom.Vec3) {
	for i, s := range solids {
		lo, hi := s.BoundingBox()
		if i == 0 {
			min, max = lo, hi
			continue
		}
		min, max = min.Min(lo), max.Max(hi)
	}
	return min, max
}

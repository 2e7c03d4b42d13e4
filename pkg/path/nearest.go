package path

import (
	"math"

	"github.com/chazu/brushline/pkg/geom"
)

// NearestPointOnPath walks consecutive point pairs in order and returns the
// first intersection of the sphere (query, minRadius) with an edge, together
// with the index of the edge's start point. If no edge intersects it returns
// the last point and len(points)-1. An empty slice yields the zero vector
// and -1.
//
// The first match in scan order wins even when a later edge intersects
// closer to query: callers use the scan order to encode placement order.
func NearestPointOnPath(query geom.Vec3, minRadius float64, points []geom.Vec3) (geom.Vec3, int) {
	if p, i, ok := FirstIntersection(query, minRadius, points); ok {
		return p, i
	}
	if len(points) == 0 {
		return geom.Vec3{}, -1
	}
	return points[len(points)-1], len(points) - 1
}

// FirstIntersection is NearestPointOnPath without the fallback: ok is false
// when no edge intersects the sphere.
func FirstIntersection(query geom.Vec3, radius float64, points []geom.Vec3) (geom.Vec3, int, bool) {
	for i := 0; i+1 < len(points); i++ {
		if p, ok := SphereSegmentIntersection(query, radius, points[i], points[i+1]); ok {
			return p, i, true
		}
	}
	return geom.Vec3{}, -1, false
}

// SphereSegmentIntersection intersects the segment a→b with the sphere of
// the given center and radius. Of the two roots of the quadratic in t, the
// larger one inside [0, 1] is preferred, i.e. the farther intersection along
// the segment direction. It reports false when the discriminant is negative,
// the segment has zero length, or neither root lies in [0, 1].
func SphereSegmentIntersection(center geom.Vec3, radius float64, a, b geom.Vec3) (geom.Vec3, bool) {
	d := b.Sub(a)
	f := a.Sub(center)

	qa := d.Dot(d)
	if qa < geom.Epsilon*geom.Epsilon {
		return geom.Vec3{}, false
	}
	qb := 2 * f.Dot(d)
	qc := f.Dot(f) - radius*radius

	disc := qb*qb - 4*qa*qc
	if disc < 0 {
		return geom.Vec3{}, false
	}
	sq := math.Sqrt(disc)
	t1 := (-qb - sq) / (2 * qa)
	t2 := (-qb + sq) / (2 * qa)

	switch {
	case t2 >= 0 && t2 <= 1:
		return a.Add(d.Scale(t2)), true
	case t1 >= 0 && t1 <= 1:
		return a.Add(d.Scale(t1)), true
	}
	return geom.Vec3{}, false
}

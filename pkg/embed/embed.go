// Package embed resolves the final orientation of a placed item and how far
// it sinks into or lifts off the surface beneath it.
package embed

import (
	"math"

	"github.com/chazu/brushline/pkg/geom"
)

// alongX maps the item's +X axis onto the internal +Z forward axis.
var alongX = geom.AxisAngle(geom.Up, -math.Pi/2)

// Orient returns the item rotation for a path tangent and surface normal.
//
// With perpendicular set the item looks exactly along the tangent and its up
// axis leans toward the normal. Otherwise the tangent is first flattened onto
// the surface plane so the item sits flush with up equal to the normal.
// along names the item axis that should follow the tangent; only X needs a
// realignment since Z is already the forward axis.
func Orient(tangent, normal geom.Vec3, perpendicular bool, along geom.Axis) geom.Quat {
	up := normal.Normalize()
	if up.IsZero() {
		up = geom.Up
	}
	forward := tangent
	if !perpendicular {
		forward = tangent.ProjectOnPlane(up)
	}
	if forward.Normalize().IsZero() {
		// Tangent parallel to the normal or zero: keep a horizontal heading.
		forward = geom.Forward.ProjectOnPlane(up)
		if forward.Normalize().IsZero() {
			forward = geom.Right.ProjectOnPlane(up)
		}
	}

	rot := geom.LookRotation(forward, up)
	if along == geom.AxisX {
		rot = rot.Mul(alongX)
	}
	return rot.Normalize()
}

// Transform is a candidate item pose.
type Transform struct {
	Position geom.Vec3
	Rotation geom.Quat
	Scale    float64
}

func (t Transform) scale() float64 {
	if t.Scale <= 0 {
		return 1
	}
	return t.Scale
}

// apply maps an item-local offset to world space.
func (t Transform) apply(local geom.Vec3) geom.Vec3 {
	return t.Position.Add(t.Rotation.Rotate(local.Scale(t.scale())))
}

// ProbeFunc casts a ray and returns the distance to the first admissible hit.
type ProbeFunc func(origin, dir geom.Vec3, maxDist float64) (float64, bool)

// minProbeHeight is the lower bound of the probe start height.
const minProbeHeight = 100

// ResolveEmbedDepth returns how far the item must move along its local down
// axis so its lowest-hanging bottom vertex meets the surface. Positive values
// lower the item, negative values raise it, 0 means leave it alone.
//
// Every vertex is probed from H = max(bottomMagnitude*100, 100) above it along
// local down, with a ray of length H+maxProbe. A hit at distance d is an
// overshoot of d-H: positive when the surface lies below the vertex. The
// smallest positive overshoot wins. When every hit is negative the vertices
// are already buried, and the probe set is repeated once from H/2 to refine
// the depth; that pass returns its smallest positive overshoot, or the most
// negative one, or 0. With no hit at all the item floats where it is.
func ResolveEmbedDepth(bottom []geom.Vec3, t Transform, maxProbe float64, probe ProbeFunc) float64 {
	if len(bottom) == 0 || probe == nil {
		return 0
	}
	maxProbe = math.Max(maxProbe, 0)

	var magnitude float64
	for _, v := range bottom {
		magnitude = math.Max(magnitude, v.Length()*t.scale())
	}
	height := math.Max(magnitude*100, minProbeHeight)

	pos, _, ok := probeAll(bottom, t, height, maxProbe, probe)
	switch {
	case !ok:
		return 0
	case !math.IsInf(pos, 1):
		return pos
	}

	pos, neg, ok := probeAll(bottom, t, height/2, maxProbe, probe)
	switch {
	case !ok:
		return 0
	case !math.IsInf(pos, 1):
		return pos
	}
	return neg
}

// probeAll casts one probe per vertex from height above it. It returns the
// smallest positive overshoot (+Inf if none), the most negative overshoot
// and whether anything was hit. When ok is true and pos is +Inf, neg is
// finite.
func probeAll(bottom []geom.Vec3, t Transform, height, maxProbe float64, probe ProbeFunc) (pos, neg float64, ok bool) {
	down := t.Rotation.Rotate(geom.Down).Normalize()
	if down.IsZero() {
		down = geom.Down
	}
	pos, neg = math.Inf(1), math.Inf(1)
	for _, v := range bottom {
		origin := t.apply(v).Sub(down.Scale(height))
		d, hit := probe(origin, down, height+maxProbe)
		if !hit || math.IsNaN(d) {
			continue
		}
		ok = true
		over := d - height
		switch {
		case over >= 0:
			pos = math.Min(pos, over)
		case math.IsInf(neg, 1) || over < neg:
			neg = over
		}
	}
	return pos, neg, ok
}

// BottomVertices returns the four bottom corners of an item box of the given
// size, relative to its pivot. pivotOffset is the pivot-to-center offset.
func BottomVertices(size, pivotOffset geom.Vec3) []geom.Vec3 {
	hx, hy, hz := size.X/2, size.Y/2, size.Z/2
	c := pivotOffset
	return []geom.Vec3{
		c.Add(geom.V(-hx, -hy, -hz)),
		c.Add(geom.V(hx, -hy, -hz)),
		c.Add(geom.V(hx, -hy, hz)),
		c.Add(geom.V(-hx, -hy, hz)),
	}
}

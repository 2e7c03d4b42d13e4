package sdfx

import (
	"math"

	"github.com/deadsy/sdfx/sdf"

	"github.com/chazu/brushline/pkg/geom"
	"github.com/chazu/brushline/pkg/kernel"
)

// boxPad widens the bounding box clip so grazing rays still march.
const boxPad = 1e-4

// Raycast sphere-traces the solid's distance field along ray and returns the
// first surface entry within maxDist. A ray starting inside the solid first
// marches out and reports the next entry after that, so a probe started
// below a surface never reports a contact at its own origin.
func (k *SdfxKernel) Raycast(s kernel.Solid, ray geom.Ray, maxDist float64) (kernel.RayHit, bool) {
	field := unwrap(s)
	dir := ray.Direction.Normalize()
	if dir.IsZero() || maxDist <= 0 {
		return kernel.RayHit{}, false
	}
	ray.Direction = dir

	lo, hi := s.BoundingBox()
	pad := geom.V(boxPad, boxPad, boxPad)
	enter, exit, ok := kernel.ClipBox(ray, lo.Sub(pad), hi.Add(pad))
	if !ok {
		return kernel.RayHit{}, false
	}
	limit := math.Min(exit, maxDist)
	t := math.Max(enter, 0)

	steps, tol := k.MaxSteps, k.Tolerance
	if steps <= 0 {
		steps = 512
	}
	if tol <= 0 {
		tol = 1e-5
	}
	eval := func(t float64) float64 {
		return field.Evaluate(toVec(ray.At(t)))
	}

	// Leave the solid when starting inside it.
	d := eval(t)
	for i := 0; d < tol && i < steps; i++ {
		t += math.Max(-d, tol) + tol
		if t > limit {
			return kernel.RayHit{}, false
		}
		d = eval(t)
	}

	for i := 0; i < steps; i++ {
		if d < tol {
			p := ray.At(t)
			return kernel.RayHit{Point: p, Normal: normal(field, p, tol), Distance: t}, true
		}
		t += d
		if t > limit {
			return kernel.RayHit{}, false
		}
		d = eval(t)
	}
	return kernel.RayHit{}, false
}

// normal estimates the outward surface normal by central differences.
func normal(field sdf.SDF3, p geom.Vec3, tol float64) geom.Vec3 {
	h := math.Max(tol*10, 1e-6)
	at := func(dx, dy, dz float64) float64 {
		return field.Evaluate(toVec(p.Add(geom.V(dx, dy, dz))))
	}
	n := geom.V(
		at(h, 0, 0)-at(-h, 0, 0),
		at(0, h, 0)-at(0, -h, 0),
		at(0, 0, h)-at(0, 0, -h),
	).Normalize()
	if n.IsZero() {
		return geom.Up
	}
	return n
}

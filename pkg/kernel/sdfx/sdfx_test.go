package sdfx

import (
	"math"
	"testing"

	"github.com/chazu/brushline/pkg/geom"
)

const hitTol = 1e-3

func down(x, y, z float64) geom.Ray {
	return geom.Ray{Origin: geom.V(x, y, z), Direction: geom.Down}
}

// ---------------------------------------------------------------------------
// Construction and bounds
// ---------------------------------------------------------------------------

func TestBoxBoundingBox(t *testing.T) {
	k := New()
	box := k.Box(100, 50, 25)
	min, max := box.BoundingBox()

	if !min.ApproxEqual(geom.V(0, 0, 0), 0.01) {
		t.Errorf("min = %v, want the origin", min)
	}
	if !max.ApproxEqual(geom.V(100, 50, 25), 0.01) {
		t.Errorf("max = %v, want (100,50,25)", max)
	}
}

func TestTranslate(t *testing.T) {
	k := New()
	box := k.Translate(k.Box(10, 10, 10), 100, 200, 300)
	min, max := box.BoundingBox()
	if !min.ApproxEqual(geom.V(100, 200, 300), 0.5) || !max.ApproxEqual(geom.V(110, 210, 310), 0.5) {
		t.Errorf("bounds = %v..%v", min, max)
	}
}

func TestRotate(t *testing.T) {
	k := New()
	box := k.Box(100, 10, 10)

	// A long box along X rotated 90 degrees around Z should extend along Y instead.
	min, max := k.Rotate(box, 0, 0, 90).BoundingBox()
	ext := max.Sub(min)

	const tol = 1.0
	if math.Abs(ext.X-10) > tol {
		t.Errorf("rotated X extent = %f, expected ~10", ext.X)
	}
	if math.Abs(ext.Y-100) > tol {
		t.Errorf("rotated Y extent = %f, expected ~100", ext.Y)
	}
}

func TestCylinderIsUpright(t *testing.T) {
	k := New()
	min, max := k.Cylinder(50, 10).BoundingBox()
	ext := max.Sub(min)
	if math.Abs(ext.Y-50) > 0.5 || math.Abs(ext.X-20) > 0.5 || math.Abs(ext.Z-20) > 0.5 {
		t.Errorf("cylinder extent = %v, want 20×50×20", ext)
	}
}

// ---------------------------------------------------------------------------
// Raycast
// ---------------------------------------------------------------------------

func TestRaycastBoxTop(t *testing.T) {
	k := New()
	box := k.Box(10, 2, 10)

	hit, ok := k.Raycast(box, down(5, 10, 5), 100)
	if !ok {
		t.Fatal("expected a hit")
	}
	if math.Abs(hit.Distance-8) > hitTol {
		t.Errorf("distance = %v, want 8", hit.Distance)
	}
	if !hit.Point.ApproxEqual(geom.V(5, 2, 5), hitTol) {
		t.Errorf("point = %v, want (5,2,5)", hit.Point)
	}
	if !hit.Normal.ApproxEqual(geom.Up, 1e-2) {
		t.Errorf("normal = %v, want +Y", hit.Normal)
	}
}

func TestRaycastMisses(t *testing.T) {
	k := New()
	box := k.Box(10, 2, 10)
	tests := []struct {
		name string
		ray  geom.Ray
		max  float64
	}{
		{"beside", down(20, 10, 5), 100},
		{"too short", down(5, 10, 5), 5},
		{"pointing away", geom.Ray{Origin: geom.V(5, 10, 5), Direction: geom.Up}, 100},
		{"zero direction", geom.Ray{Origin: geom.V(5, 10, 5)}, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if hit, ok := k.Raycast(box, tt.ray, tt.max); ok {
				t.Errorf("unexpected hit %+v", hit)
			}
		})
	}
}

func TestRaycastSphere(t *testing.T) {
	k := New()
	s := k.Sphere(3)
	ray := geom.Ray{Origin: geom.V(-10, 0, 0), Direction: geom.V(2, 0, 0)}
	hit, ok := k.Raycast(s, ray, 50)
	if !ok {
		t.Fatal("expected a hit")
	}
	if math.Abs(hit.Distance-7) > hitTol {
		t.Errorf("distance = %v, want 7", hit.Distance)
	}
	if !hit.Normal.ApproxEqual(geom.V(-1, 0, 0), 1e-2) {
		t.Errorf("normal = %v, want -X", hit.Normal)
	}
}

func TestRaycastFromInsideReportsNextEntry(t *testing.T) {
	k := New()
	upper := k.Translate(k.Box(4, 2, 4), 0, 10, 0)
	lower := k.Box(4, 2, 4)
	both := k.Union(upper, lower)

	// Start inside the upper box: exit through its floor, then land on the
	// lower box top at y=2.
	hit, ok := k.Raycast(both, down(2, 11, 2), 100)
	if !ok {
		t.Fatal("expected a hit")
	}
	if !hit.Point.ApproxEqual(geom.V(2, 2, 2), 1e-2) {
		t.Errorf("point = %v, want (2,2,2)", hit.Point)
	}

	if _, ok := k.Raycast(lower, down(2, 1, 2), 100); ok {
		t.Error("ray leaving a lone solid must not hit it")
	}
}

func TestRaycastThroughHole(t *testing.T) {
	k := New()
	slab := k.Translate(k.Box(20, 4, 20), -10, 0, -10)
	hole := k.Cylinder(10, 2)
	plate := k.Difference(slab, hole)

	if _, ok := k.Raycast(plate, down(0, 10, 0), 100); ok {
		t.Error("ray down the hole axis should pass through")
	}
	hit, ok := k.Raycast(plate, down(5, 10, 0), 100)
	if !ok || math.Abs(hit.Point.Y-4) > hitTol {
		t.Errorf("solid part: hit %v ok %v, want y=4", hit.Point, ok)
	}
}

func TestRaycastIntersection(t *testing.T) {
	k := New()
	a := k.Box(10, 10, 10)
	b := k.Translate(k.Box(10, 10, 10), 5, -5, 0)
	lens := k.Intersection(a, b)
	hit, ok := k.Raycast(lens, down(7, 20, 5), 100)
	if !ok || math.Abs(hit.Point.Y-5) > hitTol {
		t.Errorf("hit %v ok %v, want the top of the overlap at y=5", hit.Point, ok)
	}
	if _, ok := k.Raycast(lens, down(2, 20, 5), 100); ok {
		t.Error("ray outside the overlap should miss")
	}
}

// ---------------------------------------------------------------------------
// Heightfield
// ---------------------------------------------------------------------------

func TestHeightfieldFlat(t *testing.T) {
	k := New()
	hf := k.Heightfield(10, 10, -1, func(x, z float64) float64 { return 0 })
	hit, ok := k.Raycast(hf, down(3, 5, 7), 100)
	if !ok {
		t.Fatal("expected a hit")
	}
	if math.Abs(hit.Point.Y) > hitTol {
		t.Errorf("hit y = %v, want 0", hit.Point.Y)
	}
	if _, ok := k.Raycast(hf, down(12, 5, 7), 100); ok {
		t.Error("ray outside the footprint should miss")
	}
}

func TestHeightfieldSlope(t *testing.T) {
	k := New()
	ramp := func(x, z float64) float64 { return 0.5 * x }
	hf := k.Heightfield(10, 10, 0, ramp)

	min, max := hf.BoundingBox()
	if min.Y != 0 || max.Y < 5 {
		t.Errorf("bounds = %v..%v, want y spanning [0, >=5]", min, max)
	}

	for _, x := range []float64{1, 4, 8} {
		hit, ok := k.Raycast(hf, down(x, 20, 5), 100)
		if !ok {
			t.Fatalf("x=%v: expected a hit", x)
		}
		if math.Abs(hit.Point.Y-ramp(x, 5)) > 1e-2 {
			t.Errorf("x=%v: hit y = %v, want %v", x, hit.Point.Y, ramp(x, 5))
		}
		want := geom.V(-0.5, 1, 0).Normalize()
		if !hit.Normal.ApproxEqual(want, 5e-2) {
			t.Errorf("x=%v: normal = %v, want %v", x, hit.Normal, want)
		}
	}
}

func TestHeightfieldNilHeight(t *testing.T) {
	k := New()
	hf := k.Heightfield(4, 4, 2, nil)
	hit, ok := k.Raycast(hf, down(2, 10, 2), 100)
	if !ok || math.Abs(hit.Point.Y-2) > hitTol {
		t.Errorf("hit %v ok %v, want flat top at the base y=2", hit.Point, ok)
	}
}

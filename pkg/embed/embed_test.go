package embed

import (
	"math"
	"testing"

	"github.com/chazu/brushline/pkg/geom"
)

const tol = 1e-9

// ---------------------------------------------------------------------------
// Orient
// ---------------------------------------------------------------------------

func TestOrientAxisMapping(t *testing.T) {
	tangent := geom.V(1, 0, 0)
	cases := []struct {
		along geom.Axis
		axis  geom.Vec3 // item-local axis that must follow the tangent
	}{
		{geom.AxisZ, geom.Forward},
		{geom.AxisX, geom.Right},
	}
	for _, tc := range cases {
		t.Run(tc.along.String(), func(t *testing.T) {
			q := Orient(tangent, geom.Up, false, tc.along)
			if got := q.Rotate(tc.axis); !got.ApproxEqual(tangent, tol) {
				t.Errorf("along axis maps to %v, want %v", got, tangent)
			}
			if got := q.Rotate(geom.Up); !got.ApproxEqual(geom.Up, tol) {
				t.Errorf("up maps to %v, want +Y", got)
			}
		})
	}
}

func TestOrientFlushOnSlope(t *testing.T) {
	normal := geom.V(0, 1, 1).Normalize()
	q := Orient(geom.V(0, 0, 1), normal, false, geom.AxisZ)

	if got := q.Rotate(geom.Up); !got.ApproxEqual(normal, tol) {
		t.Errorf("up = %v, want the surface normal %v", got, normal)
	}
	if d := q.Rotate(geom.Forward).Dot(normal); math.Abs(d) > tol {
		t.Errorf("forward not in the surface plane, dot = %v", d)
	}
}

func TestOrientPerpendicularKeepsTangent(t *testing.T) {
	normal := geom.V(0, 1, 1).Normalize()
	tangent := geom.V(0, 0, 1)
	q := Orient(tangent, normal, true, geom.AxisZ)
	if got := q.Rotate(geom.Forward); !got.ApproxEqual(tangent, tol) {
		t.Errorf("forward = %v, want the tangent %v", got, tangent)
	}
}

func TestOrientDegenerate(t *testing.T) {
	cases := []struct {
		name            string
		tangent, normal geom.Vec3
	}{
		{"zero tangent", geom.Vec3{}, geom.Up},
		{"tangent along normal", geom.V(0, 3, 0), geom.Up},
		{"zero normal", geom.V(1, 0, 0), geom.Vec3{}},
		{"normal along forward", geom.V(1, 0, 0), geom.Forward},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := Orient(tc.tangent, tc.normal, false, geom.AxisZ)
			if !q.Rotate(geom.Forward).IsFinite() {
				t.Fatalf("non-finite rotation %v", q)
			}
			n := math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
			if math.Abs(n-1) > 1e-9 {
				t.Errorf("rotation not unit: |q| = %v", n)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// ResolveEmbedDepth
// ---------------------------------------------------------------------------

// groundAt returns a probe against the horizontal plane y = h, counting calls.
func groundAt(h float64, calls *int) ProbeFunc {
	return func(origin, dir geom.Vec3, maxDist float64) (float64, bool) {
		*calls++
		if dir.Y >= 0 {
			return 0, false
		}
		d := (origin.Y - h) / -dir.Y
		if d < 0 || d > maxDist {
			return 0, false
		}
		return d, true
	}
}

func cube() []geom.Vec3 {
	return BottomVertices(geom.V(1, 1, 1), geom.Vec3{})
}

func TestResolveEmbedDepthFloating(t *testing.T) {
	var calls int
	tr := Transform{Position: geom.V(0, 2, 0), Rotation: geom.Identity, Scale: 1}
	got := ResolveEmbedDepth(cube(), tr, 10, groundAt(0, &calls))
	if math.Abs(got-1.5) > tol {
		t.Errorf("depth = %v, want 1.5", got)
	}
	if calls != 4 {
		t.Errorf("probes = %d, want 4 (no refinement)", calls)
	}
}

func TestResolveEmbedDepthBuriedRefines(t *testing.T) {
	var calls int
	tr := Transform{Position: geom.V(0, -1, 0), Rotation: geom.Identity, Scale: 1}
	got := ResolveEmbedDepth(cube(), tr, 10, groundAt(0, &calls))
	if math.Abs(got+1.5) > tol {
		t.Errorf("depth = %v, want -1.5", got)
	}
	if calls != 8 {
		t.Errorf("probes = %d, want 8 (one refinement pass)", calls)
	}
}

func TestResolveEmbedDepthRefinementFindsPositive(t *testing.T) {
	// H is 100 for a unit cube; the long pass only sees a surface above the
	// vertices, the short pass sees one below.
	probe := func(origin, dir geom.Vec3, maxDist float64) (float64, bool) {
		if maxDist > 100 {
			return 90, true
		}
		return 51, true
	}
	tr := Transform{Rotation: geom.Identity, Scale: 1}
	if got := ResolveEmbedDepth(cube(), tr, 10, probe); math.Abs(got-1) > tol {
		t.Errorf("depth = %v, want 1", got)
	}
}

func TestResolveEmbedDepthSmallestPositiveWins(t *testing.T) {
	// Ground is the tilted plane y = x. The x=+0.5 corners hang 0.5 above
	// it and the x=-0.5 corners 1.5.
	probe := func(origin, dir geom.Vec3, maxDist float64) (float64, bool) {
		ground := origin.X
		return origin.Y - ground, true
	}
	tr := Transform{Position: geom.V(0, 1.5, 0), Rotation: geom.Identity, Scale: 1}
	if got := ResolveEmbedDepth(cube(), tr, 10, probe); math.Abs(got-0.5) > tol {
		t.Errorf("depth = %v, want 0.5", got)
	}
}

func TestResolveEmbedDepthNoHitIsZero(t *testing.T) {
	never := func(origin, dir geom.Vec3, maxDist float64) (float64, bool) { return 0, false }
	tr := Transform{Position: geom.V(0, 5, 0), Rotation: geom.Identity, Scale: 1}
	if got := ResolveEmbedDepth(cube(), tr, 10, never); got != 0 {
		t.Errorf("depth = %v, want exactly 0", got)
	}
	if got := ResolveEmbedDepth(nil, tr, 10, never); got != 0 {
		t.Errorf("no vertices: depth = %v, want 0", got)
	}
	if got := ResolveEmbedDepth(cube(), tr, 10, nil); got != 0 {
		t.Errorf("nil probe: depth = %v, want 0", got)
	}
}

func TestResolveEmbedDepthProbesAlongLocalDown(t *testing.T) {
	rot := geom.AxisAngle(geom.Forward, math.Pi/2)
	want := rot.Rotate(geom.Down)
	var heights []float64
	probe := func(origin, dir geom.Vec3, maxDist float64) (float64, bool) {
		if !dir.ApproxEqual(want, tol) {
			t.Errorf("probe dir = %v, want %v", dir, want)
		}
		heights = append(heights, maxDist)
		return 0, false
	}
	big := BottomVertices(geom.V(4, 2, 4), geom.Vec3{})
	ResolveEmbedDepth(big, Transform{Rotation: rot, Scale: 1}, 5, probe)

	// |(2,-1,2)| = 3, so H = 300 and the ray is 305 long.
	for _, h := range heights {
		if math.Abs(h-305) > 1e-9 {
			t.Errorf("ray length = %v, want 305", h)
		}
	}
}

func TestBottomVertices(t *testing.T) {
	got := BottomVertices(geom.V(2, 4, 6), geom.V(0, 2, 0))
	if len(got) != 4 {
		t.Fatalf("got %d vertices", len(got))
	}
	for _, v := range got {
		if v.Y != 0 {
			t.Errorf("vertex %v not on the pivot plane", v)
		}
		if math.Abs(v.X) != 1 || math.Abs(v.Z) != 3 {
			t.Errorf("vertex %v not a corner", v)
		}
	}
}

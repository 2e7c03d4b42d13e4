package distribute

import (
	"math"
	"testing"

	"github.com/chazu/brushline/pkg/geom"
	"github.com/chazu/brushline/pkg/path"
)

const tol = 1e-9

func straightLine(t *testing.T, pts ...geom.Vec3) path.Polyline {
	t.Helper()
	p := path.New()
	for _, v := range pts {
		p.AddPoint(v)
	}
	return p.Polyline()
}

func positionsX(anchors []Anchor) []float64 {
	out := make([]float64, len(anchors))
	for i, a := range anchors {
		out[i] = a.Position.X
	}
	return out
}

// ---------------------------------------------------------------------------
// Bounds spacing
// ---------------------------------------------------------------------------

func TestDistributeBoundsStraight(t *testing.T) {
	line := straightLine(t, geom.V(0, 0, 0), geom.V(10, 0, 0))
	got := Distribute(line, []float64{2, 2, 2}, SpacingPolicy{Mode: Bounds, Gap: 1})

	if len(got) != 3 {
		t.Fatalf("got %d anchors, want 3", len(got))
	}
	want := []float64{0, 3, 6}
	for i, x := range positionsX(got) {
		if math.Abs(x-want[i]) > tol {
			t.Errorf("anchor %d at x=%v, want %v", i, x, want[i])
		}
	}
	for i, a := range got {
		if math.Abs(a.Tangent.Length()-3) > tol {
			t.Errorf("anchor %d tangent length = %v, want 3", i, a.Tangent.Length())
		}
		if !a.Direction.ApproxEqual(geom.V(1, 0, 0), tol) {
			t.Errorf("anchor %d direction = %v", i, a.Direction)
		}
		if a.Item != i {
			t.Errorf("anchor %d Item = %d", i, a.Item)
		}
	}
	if c := got[1].Center(2); !c.ApproxEqual(geom.V(4, 0, 0), tol) {
		t.Errorf("center = %v, want (4,0,0)", c)
	}
}

func TestDistributeLastItemReservedExactly(t *testing.T) {
	line := straightLine(t, geom.V(0, 0, 0), geom.V(20, 0, 0))
	got := Distribute(line, []float64{2, 4}, SpacingPolicy{Mode: Bounds, Gap: 0.5})
	if len(got) != 2 {
		t.Fatalf("got %d anchors, want 2", len(got))
	}
	last := got[1]
	if math.Abs(last.Tangent.Length()-4.5) > tol {
		t.Errorf("last tangent length = %v, want footprint+gap 4.5", last.Tangent.Length())
	}
}

func TestDistributeStopsAtPathEnd(t *testing.T) {
	line := straightLine(t, geom.V(0, 0, 0), geom.V(10, 0, 0))
	got := Distribute(line, []float64{2, 2, 2, 2, 2}, SpacingPolicy{Mode: Bounds, Gap: 1})

	want := []float64{0, 3, 6, 9}
	if len(got) != len(want) {
		t.Fatalf("got %d anchors %v, want %v", len(got), positionsX(got), want)
	}
	last := got[len(got)-1]
	if math.Abs(last.Tangent.Length()-1) > tol {
		t.Errorf("overflowing last tangent = %v, want the remaining 1", last.Tangent.Length())
	}
}

func TestDistributeDropsItemsWithNoPathLeft(t *testing.T) {
	line := straightLine(t, geom.V(0, 0, 0), geom.V(6, 0, 0))
	got := Distribute(line, []float64{2, 2, 2, 2}, SpacingPolicy{Mode: Bounds, Gap: 1})
	if len(got) != 2 {
		t.Fatalf("got %d anchors %v, want 2", len(got), positionsX(got))
	}
}

func TestDistributeSingleItemSpansWholePath(t *testing.T) {
	line := straightLine(t, geom.V(0, 0, 0), geom.V(0, 0, 8))
	got := Distribute(line, []float64{1}, SpacingPolicy{Mode: Bounds})
	if len(got) != 1 {
		t.Fatalf("got %d anchors, want 1", len(got))
	}
	if !got[0].Tangent.ApproxEqual(geom.V(0, 0, 8), tol) {
		t.Errorf("tangent = %v, want (0,0,8)", got[0].Tangent)
	}
}

func TestDistributeAcrossCorner(t *testing.T) {
	line := straightLine(t, geom.V(0, 0, 0), geom.V(4, 0, 0), geom.V(4, 0, 4))
	got := Distribute(line, []float64{5, 1}, SpacingPolicy{Mode: Bounds})
	if len(got) != 2 {
		t.Fatalf("got %d anchors, want 2", len(got))
	}
	// 5 from the origin lands on the second edge at (4,0,3).
	if !got[1].Position.ApproxEqual(geom.V(4, 0, 3), 1e-9) {
		t.Errorf("second anchor = %v, want (4,0,3)", got[1].Position)
	}
	if got[1].Segment != 1 {
		t.Errorf("second anchor segment = %d, want 1", got[1].Segment)
	}
	if math.Abs(got[1].Distance-7) > tol {
		t.Errorf("second anchor distance = %v, want 7", got[1].Distance)
	}
}

// Consecutive anchors are exactly one reserved length apart, so re-running
// the distribution from any anchor reproduces the rest of the run.
func TestDistributeBoundsChordSpacingOnCurve(t *testing.T) {
	p := path.New(path.WithResolution(24))
	for _, v := range []geom.Vec3{geom.V(0, 0, 0), geom.V(5, 0, 5), geom.V(10, 0, 0), geom.V(15, 0, 5)} {
		p.AddPoint(v)
	}
	for i := 0; i < p.Len(); i++ {
		if err := p.SetSegmentType(i, path.Curve); err != nil {
			t.Fatal(err)
		}
	}
	line := p.Polyline()

	fps := []float64{1.5, 0.5, 2, 1, 1.5, 0.5, 2}
	policy := SpacingPolicy{Mode: Bounds, Gap: 0.25}
	got := Distribute(line, fps, policy)
	if len(got) < 3 {
		t.Fatalf("got %d anchors, want at least 3", len(got))
	}
	for i := 0; i+1 < len(got); i++ {
		d := got[i].Position.Distance(got[i+1].Position)
		if math.Abs(d-got[i].Reserved) > 1e-6 {
			t.Errorf("anchors %d→%d are %v apart, want %v", i, i+1, d, got[i].Reserved)
		}
		if got[i+1].Distance < got[i].Distance {
			t.Errorf("anchor %d moved backwards along the path", i+1)
		}
	}
}

// ---------------------------------------------------------------------------
// Constant spacing
// ---------------------------------------------------------------------------

func TestDistributeConstantIgnoresFootprint(t *testing.T) {
	line := straightLine(t, geom.V(0, 0, 0), geom.V(10, 0, 0))
	got := Distribute(line, []float64{9, 0.1, 4}, SpacingPolicy{Mode: Constant, Spacing: 2.5})
	want := []float64{0, 2.5, 5}
	if len(got) != len(want) {
		t.Fatalf("got %d anchors, want %d", len(got), len(want))
	}
	for i, x := range positionsX(got) {
		if math.Abs(x-want[i]) > tol {
			t.Errorf("anchor %d at x=%v, want %v", i, x, want[i])
		}
	}
}

func TestDistributeZeroSpacingKeepsDirection(t *testing.T) {
	line := straightLine(t, geom.V(0, 0, 0), geom.V(0, 0, -3))
	got := Distribute(line, []float64{1, 1, 1}, SpacingPolicy{Mode: Constant})
	if len(got) != 3 {
		t.Fatalf("got %d anchors, want 3", len(got))
	}
	for i, a := range got {
		if !a.Direction.ApproxEqual(geom.V(0, 0, -1), tol) {
			t.Errorf("anchor %d direction = %v, want (0,0,-1)", i, a.Direction)
		}
	}
}

// ---------------------------------------------------------------------------
// Degenerate input
// ---------------------------------------------------------------------------

func TestDistributeDegenerate(t *testing.T) {
	line := straightLine(t, geom.V(0, 0, 0), geom.V(1, 0, 0))
	if got := Distribute(line, nil, SpacingPolicy{}); got != nil {
		t.Errorf("no footprints: got %v", got)
	}
	if got := Distribute(path.Polyline{}, []float64{1}, SpacingPolicy{}); got != nil {
		t.Errorf("empty line: got %v", got)
	}
	one := straightLine(t, geom.V(1, 2, 3))
	if got := Distribute(one, []float64{1}, SpacingPolicy{}); got != nil {
		t.Errorf("single point line: got %v", got)
	}
}

func TestReservedNeverNegative(t *testing.T) {
	if r := (SpacingPolicy{Mode: Bounds, Gap: -5}).Reserved(2); r != 0 {
		t.Errorf("Reserved = %v, want 0", r)
	}
	if r := (SpacingPolicy{Mode: Constant, Spacing: -1}).Reserved(2); r != 0 {
		t.Errorf("Reserved = %v, want 0", r)
	}
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"bounds", "constant"} {
		m, err := ParseMode(s)
		if err != nil || m.String() != s {
			t.Errorf("ParseMode(%q) = %v, %v", s, m, err)
		}
	}
	if _, err := ParseMode("tight"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

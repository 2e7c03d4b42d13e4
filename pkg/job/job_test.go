package job

import (
	"errors"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/chazu/brushline/pkg/catalog"
	"github.com/chazu/brushline/pkg/distribute"
	"github.com/chazu/brushline/pkg/geom"
	"github.com/chazu/brushline/pkg/kernel/sdfx"
	"github.com/chazu/brushline/pkg/path"
	"github.com/chazu/brushline/pkg/placement"
)

func quiet() *log.Logger {
	return log.New(io.Discard)
}

func line(pts ...geom.Vec3) *path.Path {
	p := path.New()
	for _, v := range pts {
		p.AddPoint(v)
	}
	return p
}

// fenceJob is a 10-unit straight fence over a flat ground slab.
func fenceJob(t *testing.T) *Job {
	t.Helper()
	k := sdfx.New()
	j := New(k)
	if _, err := j.Scene.Add("ground", "terrain", k.Translate(k.Box(40, 1, 40), -20, -1, -20)); err != nil {
		t.Fatal(err)
	}
	if err := j.AddPath("fence", line(geom.V(0, 0, 0), geom.V(10, 0, 0))); err != nil {
		t.Fatal(err)
	}
	if err := j.AddItem(catalog.Item{Name: "post", Size: geom.V(0.2, 1, 0.2), PivotOffset: geom.V(0, 0.5, 0), Weight: 1}); err != nil {
		t.Fatal(err)
	}
	if err := j.AddItem(catalog.Item{Name: "rail", Size: geom.V(0.1, 0.1, 1.8), Weight: 2}); err != nil {
		t.Fatal(err)
	}
	return j
}

func fenceRun() Run {
	return Run{
		Name:     "main",
		Path:     "fence",
		Sequence: SequenceSpec{Items: []string{"post", "rail"}, Count: 6},
		Spacing:  distribute.SpacingPolicy{Mode: distribute.Bounds},
		Options:  placement.DefaultOptions(),
	}
}

// ---------------------------------------------------------------------------
// Building
// ---------------------------------------------------------------------------

func TestDuplicates(t *testing.T) {
	j := fenceJob(t)
	if err := j.AddPath("fence", path.New()); !errors.Is(err, ErrDuplicate) {
		t.Errorf("AddPath dup: err = %v", err)
	}
	if err := j.AddItem(catalog.Item{Name: "post"}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("AddItem dup: err = %v", err)
	}
	if err := j.AddRun(fenceRun()); err != nil {
		t.Fatal(err)
	}
	if err := j.AddRun(fenceRun()); !errors.Is(err, ErrDuplicate) {
		t.Errorf("AddRun dup: err = %v", err)
	}
	if got := j.PathNames(); len(got) != 1 || got[0] != "fence" {
		t.Errorf("PathNames = %v", got)
	}
}

func TestSequence(t *testing.T) {
	j := fenceJob(t)
	seq, err := j.Sequence(fenceRun())
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, it := range seq {
		names = append(names, it.Name)
	}
	if got := strings.Join(names, ","); got != "post,rail,post,rail,post,rail" {
		t.Errorf("sequence = %s", got)
	}

	r := fenceRun()
	r.Sequence.Items = []string{"gate"}
	if _, err := j.Sequence(r); !errors.Is(err, ErrUnknownItem) {
		t.Errorf("unknown item: err = %v", err)
	}
}

func TestSequenceAutoCount(t *testing.T) {
	j := fenceJob(t)
	r := fenceRun()
	r.Sequence = SequenceSpec{Items: []string{"post"}}
	r.Spacing.Gap = 1.8
	seq, err := j.Sequence(r)
	if err != nil {
		t.Fatal(err)
	}
	// Reserved 2 per post along 10 units: 5 spans plus the end post.
	if len(seq) != 6 {
		t.Errorf("auto count = %d, want 6", len(seq))
	}

	r.Path = "missing"
	if _, err := j.Sequence(r); !errors.Is(err, ErrUnknownPath) {
		t.Errorf("unknown path: err = %v", err)
	}
}

// ---------------------------------------------------------------------------
// Place
// ---------------------------------------------------------------------------

func TestPlace(t *testing.T) {
	j := fenceJob(t)
	r := fenceRun()
	r.Sequence = SequenceSpec{Items: []string{"post"}}
	r.Spacing.Gap = 1.8
	if err := j.AddRun(r); err != nil {
		t.Fatal(err)
	}

	results, err := j.Place(quiet())
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results", len(results))
	}
	res := results[0]
	if res.Run != "main" || res.Path != "fence" || math.Abs(res.Length-10) > 1e-9 {
		t.Errorf("result header = %+v", res)
	}
	// The sixth post would anchor at the very end with no path left.
	if len(res.Placements) != 5 {
		t.Fatalf("got %d placements, want 5", len(res.Placements))
	}
	for i, pl := range res.Placements {
		// Post pivots sit at their base, on the ground top at y=0.
		if math.Abs(pl.Position.Y) > 1e-3 {
			t.Errorf("post %d y = %v, want 0", i, pl.Position.Y)
		}
		if !pl.Surface {
			t.Errorf("post %d not on surface", i)
		}
	}
}

func TestPlaceRefusesInvalidJob(t *testing.T) {
	j := fenceJob(t)
	r := fenceRun()
	r.Path = "nowhere"
	if err := j.AddRun(r); err != nil {
		t.Fatal(err)
	}
	if _, err := j.Place(quiet()); !errors.Is(err, ErrInvalid) {
		t.Errorf("err = %v, want ErrInvalid", err)
	}
}

// ---------------------------------------------------------------------------
// Validate
// ---------------------------------------------------------------------------

func TestValidateClean(t *testing.T) {
	j := fenceJob(t)
	if err := j.AddRun(fenceRun()); err != nil {
		t.Fatal(err)
	}
	res := Validate(j)
	if !res.OK() || len(res.Warnings) != 0 {
		t.Errorf("errors=%v warnings=%v", res.Errors, res.Warnings)
	}
}

func TestValidateFindings(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Job, *Run)
		severity ValidationSeverity
		contains string
	}{
		{"unknown path", func(j *Job, r *Run) { r.Path = "nope" }, SeverityError, `path "nope" does not exist`},
		{"unknown item", func(j *Job, r *Run) { r.Sequence.Items = []string{"gate"} }, SeverityError, `item "gate" does not exist`},
		{"short path", func(j *Job, r *Run) {
			_ = j.AddPath("dot", line(geom.V(1, 2, 3)))
		}, SeverityError, "has 1 points"},
		{"negative size", func(j *Job, r *Run) {
			_ = j.AddItem(catalog.Item{Name: "bad", Size: geom.V(-1, 1, 1)})
		}, SeverityError, "negative component"},
		{"weighted without weight", func(j *Job, r *Run) {
			_ = j.AddItem(catalog.Item{Name: "ghost", Size: geom.V(1, 1, 1)})
			r.Sequence = SequenceSpec{Items: []string{"ghost"}, Mode: catalog.Weighted, Count: 3}
		}, SeverityError, "no item with positive weight"},
		{"zero constant spacing", func(j *Job, r *Run) {
			r.Spacing = distribute.SpacingPolicy{Mode: distribute.Constant}
		}, SeverityWarning, "stacks every item"},
		{"embed in free mode", func(j *Job, r *Run) {
			r.Options.Mode = placement.Free
			r.Options.Embed = true
		}, SeverityWarning, "embed has no effect"},
		{"stale path", func(j *Job, r *Run) {
			p, _ := j.Path("fence")
			_ = p.ToggleClosed()
		}, SeverityWarning, "stale"},
		{"layer filter without terrain", func(j *Job, r *Run) {
			r.Options.Filters.TerrainLayers = []int{1}
		}, SeverityWarning, "no painted terrain"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := fenceJob(t)
			r := fenceRun()
			tt.mutate(j, &r)
			if err := j.AddRun(r); err != nil {
				t.Fatal(err)
			}
			res := Validate(j)
			list := res.Errors
			if tt.severity == SeverityWarning {
				list = res.Warnings
			}
			for _, f := range list {
				if strings.Contains(f.Error(), tt.contains) {
					return
				}
			}
			t.Errorf("no %s containing %q in errors=%v warnings=%v", tt.severity, tt.contains, res.Errors, res.Warnings)
		})
	}
}

func TestValidateNoSurfaces(t *testing.T) {
	j := New(sdfx.New())
	_ = j.AddPath("p", line(geom.V(0, 0, 0), geom.V(1, 0, 0)))
	_ = j.AddItem(catalog.Item{Name: "a", Size: geom.V(1, 1, 1)})
	_ = j.AddRun(Run{Name: "r", Path: "p", Spacing: distribute.SpacingPolicy{Mode: distribute.Bounds}, Options: placement.DefaultOptions()})

	res := Validate(j)
	if !res.OK() {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0].Message, "skipped") {
		t.Errorf("warnings = %v", res.Warnings)
	}
}

func TestValidationErrorString(t *testing.T) {
	e := ValidationError{Subject: "run a", Message: "boom", Severity: SeverityWarning}
	if got := e.Error(); got != "[warning] run a: boom" {
		t.Errorf("Error() = %q", got)
	}
	e = ValidationError{Message: "boom", Severity: SeverityError}
	if got := e.Error(); got != "[error] boom" {
		t.Errorf("Error() = %q", got)
	}
}

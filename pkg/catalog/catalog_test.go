package catalog

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chazu/brushline/pkg/geom"
)

func names(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}

func TestOrderedSequenceCycles(t *testing.T) {
	c := New(Ordered, 0,
		Item{Name: "a", Size: geom.V(1, 1, 1)},
		Item{Name: "b", Size: geom.V(2, 1, 2)},
	)
	got := names(c.Sequence(5))
	if diff := cmp.Diff([]string{"a", "b", "a", "b", "a"}, got); diff != "" {
		t.Errorf("sequence (-want +got):\n%s", diff)
	}
}

func TestSequenceEdgeCases(t *testing.T) {
	if got := New(Ordered, 0).Sequence(3); got != nil {
		t.Errorf("empty catalog produced %d items", len(got))
	}
	c := New(Ordered, 0, Item{Name: "a"})
	if got := c.Sequence(0); got != nil {
		t.Errorf("n=0 produced %d items", len(got))
	}
	c = New(Weighted, 1, Item{Name: "a", Weight: 0}, Item{Name: "b", Weight: -1})
	if got := c.Sequence(4); got != nil {
		t.Errorf("zero weights produced %d items", len(got))
	}
}

func TestWeightedSequenceReproducible(t *testing.T) {
	items := []Item{
		{Name: "rock", Weight: 3},
		{Name: "bush", Weight: 1},
		{Name: "never", Weight: 0},
	}
	a := names(New(Weighted, 42, items...).Sequence(200))
	b := names(New(Weighted, 42, items...).Sequence(200))
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("same seed produced different sequences:\n%s", diff)
	}

	counts := map[string]int{}
	for _, n := range a {
		counts[n]++
	}
	if counts["never"] != 0 {
		t.Errorf("zero-weight item drawn %d times", counts["never"])
	}
	if counts["rock"] <= counts["bush"] {
		t.Errorf("weight 3 item drawn %d times, weight 1 item %d times", counts["rock"], counts["bush"])
	}
}

func TestFootprints(t *testing.T) {
	items := []Item{{Size: geom.V(1, 2, 3)}, {Size: geom.V(4, 5, 6)}}
	if diff := cmp.Diff([]float64{3, 6}, Footprints(items, geom.AxisZ)); diff != "" {
		t.Errorf("Z footprints (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{1, 4}, Footprints(items, geom.AxisX)); diff != "" {
		t.Errorf("X footprints (-want +got):\n%s", diff)
	}
}

func TestLookup(t *testing.T) {
	c := New(Ordered, 0)
	c.Add(Item{Name: "crate"})
	if _, ok := c.Lookup("crate"); !ok {
		t.Error("Lookup(crate) failed")
	}
	if _, ok := c.Lookup("barrel"); ok {
		t.Error("Lookup(barrel) should fail")
	}
}

// Package catalog supplies the ordered item sequence for one placement pass.
// Resolving weights into a concrete sequence happens here, never in the
// placement core.
package catalog

import (
	"fmt"
	"math/rand/v2"

	"github.com/chazu/brushline/pkg/geom"
)

// Item is one placeable thing: its bounding size, the offset from its pivot
// to the center of its bounds, and a selection weight.
type Item struct {
	Name        string    `json:"name" yaml:"name"`
	Size        geom.Vec3 `json:"size" yaml:"size"`
	PivotOffset geom.Vec3 `json:"pivot_offset" yaml:"pivot_offset"`
	Weight      float64   `json:"weight" yaml:"weight"`
}

// Footprint returns the item's extent along axis.
func (it Item) Footprint(axis geom.Axis) float64 {
	return it.Size.Component(axis)
}

// Footprints returns the extent of each item along axis.
func Footprints(items []Item, axis geom.Axis) []float64 {
	out := make([]float64, len(items))
	for i, it := range items {
		out[i] = it.Footprint(axis)
	}
	return out
}

// Source produces the item sequence for a placement pass.
type Source interface {
	Sequence(n int) []Item
}

// Mode selects how a Catalog turns its entries into a sequence.
type Mode int

const (
	Ordered  Mode = iota // cycle through entries in order
	Weighted             // draw entries proportionally to Weight
)

func (m Mode) String() string {
	switch m {
	case Ordered:
		return "ordered"
	case Weighted:
		return "weighted"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts "ordered" or "weighted" into a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "ordered":
		return Ordered, nil
	case "weighted", "random":
		return Weighted, nil
	}
	return 0, fmt.Errorf("invalid catalog mode %q, expected ordered or weighted", s)
}

// Catalog is an ordered list of items with a sequencing mode.
// Weighted sequences are reproducible for a given seed.
type Catalog struct {
	items []Item
	mode  Mode
	seed  uint64
}

var _ Source = (*Catalog)(nil)

// New returns a catalog holding items.
func New(mode Mode, seed uint64, items ...Item) *Catalog {
	return &Catalog{items: append([]Item(nil), items...), mode: mode, seed: seed}
}

// Add appends an item.
func (c *Catalog) Add(it Item) {
	c.items = append(c.items, it)
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.items)
}

// Items returns a copy of the entries.
func (c *Catalog) Items() []Item {
	return append([]Item(nil), c.items...)
}

// Lookup returns the entry with the given name.
func (c *Catalog) Lookup(name string) (Item, bool) {
	for _, it := range c.items {
		if it.Name == name {
			return it, true
		}
	}
	return Item{}, false
}

// Mode returns the sequencing mode.
func (c *Catalog) Mode() Mode {
	return c.mode
}

// SetMode changes the sequencing mode and seed.
func (c *Catalog) SetMode(mode Mode, seed uint64) {
	c.mode = mode
	c.seed = seed
}

// Sequence returns n items. An empty catalog, or a weighted catalog whose
// weights are all non-positive, yields an empty sequence.
func (c *Catalog) Sequence(n int) []Item {
	if n <= 0 || len(c.items) == 0 {
		return nil
	}
	if c.mode == Weighted {
		return c.weighted(n)
	}
	out := make([]Item, n)
	for i := range out {
		out[i] = c.items[i%len(c.items)]
	}
	return out
}

func (c *Catalog) weighted(n int) []Item {
	cum := make([]float64, len(c.items))
	total := 0.0
	for i, it := range c.items {
		if it.Weight > 0 {
			total += it.Weight
		}
		cum[i] = total
	}
	if total <= 0 {
		return nil
	}

	rng := rand.New(rand.NewPCG(c.seed, c.seed^0x9e3779b97f4a7c15))
	out := make([]Item, n)
	for i := range out {
		r := rng.Float64() * total
		j := 0
		for j < len(cum)-1 && cum[j] <= r {
			j++
		}
		out[i] = c.items[j]
	}
	return out
}

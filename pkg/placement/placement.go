// Package placement turns distributed anchors into final item transforms by
// projecting them onto a surface, orienting and embedding them.
// PlaceAll is read-only: it never mutates the anchors, items or scene.
package placement

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/chazu/brushline/pkg/catalog"
	"github.com/chazu/brushline/pkg/distribute"
	"github.com/chazu/brushline/pkg/embed"
	"github.com/chazu/brushline/pkg/geom"
	"github.com/chazu/brushline/pkg/path"
	"github.com/chazu/brushline/pkg/surface"
)

// Mode decides how anchors interact with the surface.
type Mode int

const (
	// Free places items at the anchor without probing.
	Free Mode = iota
	// Project drops items onto the surface when one is found and leaves
	// them at the anchor otherwise.
	Project
	// OnSurface drops items onto the surface and skips those with none.
	OnSurface
)

func (m Mode) String() string {
	switch m {
	case Free:
		return "free"
	case Project:
		return "project"
	case OnSurface:
		return "on-surface"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts a mode name into a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "free":
		return Free, nil
	case "project":
		return Project, nil
	case "on-surface", "on_surface", "surface":
		return OnSurface, nil
	}
	return 0, fmt.Errorf("invalid placement mode %q, expected free, project or on-surface", s)
}

// Options is the orientation and projection policy of a placement pass.
type Options struct {
	Mode          Mode
	Filters       surface.Filters
	ProbeHeight   float64   // start of the downward probe above each item center
	Along         geom.Axis // item axis that follows the path
	Perpendicular bool      // look exactly along the tangent instead of flush
	Embed         bool      // settle items with ResolveEmbedDepth
	EmbedMaxProbe float64   // how far below a bottom vertex an embed probe reaches
	Offset        float64   // final shift along the item's local up
	Scale         float64   // uniform item scale
}

// DefaultOptions returns on-surface placement along Z at unit scale.
func DefaultOptions() Options {
	return Options{
		Mode:          OnSurface,
		ProbeHeight:   10,
		Along:         geom.AxisZ,
		EmbedMaxProbe: 1,
		Scale:         1,
	}
}

func (o Options) scale() float64 {
	if o.Scale <= 0 {
		return 1
	}
	return o.Scale
}

// Placement is one positioned item.
type Placement struct {
	Position geom.Vec3 `json:"position" yaml:"position"`
	Rotation geom.Quat `json:"rotation" yaml:"rotation"`
	Scale    float64   `json:"scale" yaml:"scale"`
	Item     int       `json:"item" yaml:"item"`     // index into the item sequence
	Anchor   int       `json:"anchor" yaml:"anchor"` // index into the anchors
	Name     string    `json:"name" yaml:"name"`
	Surface  bool      `json:"surface" yaml:"surface"` // landed on a surface hit
}

// Footprints returns the scaled footprint of every item along opts.Along.
func Footprints(items []catalog.Item, opts Options) []float64 {
	fps := catalog.Footprints(items, opts.Along)
	s := opts.scale()
	for i := range fps {
		fps[i] *= s
	}
	return fps
}

// PlaceAll computes the transform of every anchor's item. Anchors whose item
// index is out of range are ignored; under OnSurface, anchors with no surface
// beneath them are skipped.
func PlaceAll(anchors []distribute.Anchor, items []catalog.Item, projector *surface.Projector, opts Options) []Placement {
	scale := opts.scale()
	out := make([]Placement, 0, len(anchors))

	for ai, a := range anchors {
		if a.Item < 0 || a.Item >= len(items) {
			continue
		}
		it := items[a.Item]
		center := a.Center(it.Footprint(opts.Along) * scale)

		ground, normal, onSurface := center, geom.Up, false
		if opts.Mode != Free {
			ray := geom.Ray{Origin: center.Add(geom.Up.Scale(opts.ProbeHeight)), Direction: geom.Down}
			if hit, ok := projector.Project(ray, opts.Filters); ok {
				ground, normal, onSurface = hit.Point, hit.Normal, true
			} else if opts.Mode == OnSurface {
				continue
			}
		}

		rot := embed.Orient(a.Direction, normal, opts.Perpendicular, opts.Along)
		bottomCenter := it.PivotOffset.Sub(geom.V(0, it.Size.Y/2, 0))
		pos := ground.Sub(rot.Rotate(bottomCenter.Scale(scale)))

		if opts.Embed && onSurface {
			t := embed.Transform{Position: pos, Rotation: rot, Scale: scale}
			depth := embed.ResolveEmbedDepth(embed.BottomVertices(it.Size, it.PivotOffset), t, opts.EmbedMaxProbe, probeWith(projector, opts.Filters))
			pos = pos.Add(rot.Rotate(geom.Down).Scale(depth))
		}
		if opts.Offset != 0 {
			pos = pos.Add(rot.Rotate(geom.Up).Scale(opts.Offset))
		}

		out = append(out, Placement{
			Position: pos,
			Rotation: rot,
			Scale:    scale,
			Item:     a.Item,
			Anchor:   ai,
			Name:     it.Name,
			Surface:  onSurface,
		})
	}
	return out
}

// probeWith adapts a projector to the embed probe signature.
func probeWith(p *surface.Projector, f surface.Filters) embed.ProbeFunc {
	return func(origin, dir geom.Vec3, maxDist float64) (float64, bool) {
		hit, ok := p.Project(geom.Ray{Origin: origin, Direction: dir}, f)
		if !ok || hit.Distance > maxDist {
			return 0, false
		}
		return hit.Distance, true
	}
}

// Placer runs the whole pipeline for one path and item sequence.
type Placer struct {
	Projector *surface.Projector
	Spacing   distribute.SpacingPolicy
	Options   Options
	Logger    *log.Logger
}

// NewPlacer returns a placer with default options and bounds spacing.
func NewPlacer(projector *surface.Projector) *Placer {
	return &Placer{
		Projector: projector,
		Spacing:   distribute.SpacingPolicy{Mode: distribute.Bounds},
		Options:   DefaultOptions(),
	}
}

func (pl *Placer) logger() *log.Logger {
	if pl.Logger != nil {
		return pl.Logger
	}
	return log.Default()
}

// Place samples p (resampling it first if it is stale), distributes seq
// along it and places every anchored item.
func (pl *Placer) Place(p *path.Path, seq []catalog.Item) []Placement {
	if p == nil || len(seq) == 0 {
		return nil
	}
	if p.Stale() {
		p.Resample()
	}
	line := p.Polyline()
	anchors := distribute.Distribute(line, Footprints(seq, pl.Options), pl.Spacing)
	out := PlaceAll(anchors, seq, pl.Projector, pl.Options)

	pl.logger().Debug("placed items",
		"points", p.Len(),
		"samples", line.Len(),
		"length", line.Total,
		"sequence", len(seq),
		"anchors", len(anchors),
		"placements", len(out),
		"mode", pl.Options.Mode,
	)
	return out
}

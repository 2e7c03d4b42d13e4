// Package distribute lays an item footprint sequence out along a sampled path.
package distribute

import (
	"fmt"
	"math"

	"github.com/chazu/brushline/pkg/geom"
	"github.com/chazu/brushline/pkg/path"
)

// Mode selects how much path an item reserves.
type Mode int

const (
	Bounds   Mode = iota // footprint + gap
	Constant             // fixed spacing regardless of footprint
)

func (m Mode) String() string {
	switch m {
	case Bounds:
		return "bounds"
	case Constant:
		return "constant"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts "bounds" or "constant" into a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "bounds":
		return Bounds, nil
	case "constant":
		return Constant, nil
	}
	return 0, fmt.Errorf("invalid spacing mode %q, expected bounds or constant", s)
}

// SpacingPolicy controls the distance reserved for each item.
type SpacingPolicy struct {
	Mode    Mode    `json:"mode"`
	Gap     float64 `json:"gap"`     // Bounds: extra distance after each footprint
	Spacing float64 `json:"spacing"` // Constant: distance per item
}

// Reserved returns the along-path distance an item of the given footprint
// occupies. It is never negative.
func (sp SpacingPolicy) Reserved(footprint float64) float64 {
	var d float64
	switch sp.Mode {
	case Constant:
		d = sp.Spacing
	default:
		d = footprint + sp.Gap
	}
	return math.Max(d, 0)
}

// Anchor is where one item sits on the path.
type Anchor struct {
	Position  geom.Vec3 `json:"position"`  // start of the item's reserved run
	Tangent   geom.Vec3 `json:"tangent"`   // reserved run as a vector
	Direction geom.Vec3 `json:"direction"` // unit direction, never zero
	Distance  float64   `json:"distance"`  // arc length of Position from the path start
	Reserved  float64   `json:"reserved"`  // distance reserved by the spacing policy
	Item      int       `json:"item"`      // index into the footprint sequence
	Segment   int       `json:"segment"`   // polyline edge index Position lies on
}

// Center returns the point half a footprint along the anchor's direction.
func (a Anchor) Center(footprint float64) geom.Vec3 {
	return a.Position.Add(a.Direction.Scale(footprint / 2))
}

// remainingEpsilon is the path length below which no further item is started.
const remainingEpsilon = 1e-6

// Distribute walks footprints in order and returns one anchor per placed item.
//
// The first item starts at the first polyline point. Each following anchor is
// the first point, scanning forward from the current edge, at chord distance
// Reserved from the previous anchor; measured from the previous item's center
// that is its half footprint plus the gap. The last item of a run takes its
// tangent straight to the path end, shortened to exactly its reserved length
// when the remaining path is longer. A sequence of one item takes the full
// anchor-to-end vector. Items whose anchor has no path left are dropped.
// Zero-length tangents keep the previous valid direction.
func Distribute(line path.Polyline, footprints []float64, policy SpacingPolicy) []Anchor {
	pts := line.Points
	if len(footprints) == 0 || len(pts) < 2 {
		return nil
	}
	end := pts[len(pts)-1]
	dir := initialDirection(pts)

	anchors := make([]Anchor, 0, len(footprints))
	pos, seg := pts[0], 0
	for i, fp := range footprints {
		reserved := policy.Reserved(fp)
		remaining := remainingLength(line, seg, pos)
		if i > 0 && remaining <= remainingEpsilon {
			break
		}

		next, off, found := path.FirstIntersection(pos, reserved, forward(pts, seg, pos))
		last := i == len(footprints)-1 || !found

		var tangent geom.Vec3
		switch {
		case len(footprints) == 1:
			tangent = end.Sub(pos)
		case last:
			tangent = end.Sub(pos)
			if tangent.Length() > reserved {
				tangent = tangent.WithLength(reserved)
			}
		default:
			tangent = next.Sub(pos)
		}
		if d := tangent.Normalize(); !d.IsZero() {
			dir = d
		}

		anchors = append(anchors, Anchor{
			Position:  pos,
			Tangent:   tangent,
			Direction: dir,
			Distance:  line.DistanceAt(seg, pos),
			Reserved:  reserved,
			Item:      i,
			Segment:   seg,
		})
		if last {
			break
		}
		// off indexes the forward slice, whose edge 0 is pos→pts[seg+1].
		pos, seg = next, seg+off
	}
	return anchors
}

// forward returns the remaining polyline starting at pos on edge seg.
func forward(pts []geom.Vec3, seg int, pos geom.Vec3) []geom.Vec3 {
	out := make([]geom.Vec3, 0, len(pts)-seg)
	out = append(out, pos)
	return append(out, pts[seg+1:]...)
}

// remainingLength is the arc length from pos on edge seg to the path end.
func remainingLength(line path.Polyline, seg int, pos geom.Vec3) float64 {
	return line.Total - line.DistanceAt(seg, pos)
}

// initialDirection returns the direction of the first non-degenerate edge,
// or +Z when every edge has zero length.
func initialDirection(pts []geom.Vec3) geom.Vec3 {
	for i := 0; i+1 < len(pts); i++ {
		if d := pts[i+1].Sub(pts[i]).Normalize(); !d.IsZero() {
			return d
		}
	}
	return geom.Forward
}

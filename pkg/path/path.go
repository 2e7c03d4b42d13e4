// Package path holds the editable control-point model of a placement stroke
// and the sampler that turns it into a dense, arc-length annotated polyline.
//
// A Path owns its control points and all derived data. Point mutations
// resample the whole path; ToggleClosed only flips the flag and leaves the
// caches stale until Resample is called.
package path

import (
	"errors"
	"fmt"

	"github.com/chazu/brushline/pkg/geom"
)

// DefaultResolution is the number of samples per curve span.
const DefaultResolution = 12

// MinPoints is the smallest point count an initialized path may have.
const MinPoints = 2

var (
	// ErrInvalidTopology is returned when an edit would leave fewer than
	// MinPoints control points, or when an edit needs an initialized path.
	ErrInvalidTopology = errors.New("path: invalid topology")

	// ErrIndexOutOfRange is returned for control point indices outside the path.
	ErrIndexOutOfRange = errors.New("path: index out of range")
)

// SegmentType tags the segment that starts at a control point.
type SegmentType int

const (
	Straight SegmentType = iota
	Curve
)

func (t SegmentType) String() string {
	switch t {
	case Straight:
		return "straight"
	case Curve:
		return "curve"
	default:
		return fmt.Sprintf("SegmentType(%d)", int(t))
	}
}

// ParseSegmentType converts "straight" or "curve" into a SegmentType.
func ParseSegmentType(s string) (SegmentType, error) {
	switch s {
	case "straight":
		return Straight, nil
	case "curve":
		return Curve, nil
	}
	return 0, fmt.Errorf("invalid segment type %q, expected straight or curve", s)
}

// ControlPoint is one user-authored vertex of a path.
type ControlPoint struct {
	Position geom.Vec3   `json:"position"`
	Type     SegmentType `json:"type"`
	Scale    float64     `json:"scale"` // curve tension multiplier, ignored for Straight
}

// Path is an ordered, optionally closed sequence of control points plus the
// derived sample caches.
type Path struct {
	points     []ControlPoint
	closed     bool
	resolution int
	stale      bool

	line      Polyline
	midpoints []geom.Vec3
}

// Option configures a Path.
type Option func(*Path)

// WithResolution sets the number of samples per curve span.
func WithResolution(n int) Option {
	return func(p *Path) {
		if n > 0 {
			p.resolution = n
		}
	}
}

// WithClosed creates the path closed.
func WithClosed(closed bool) Option {
	return func(p *Path) {
		p.closed = closed
	}
}

// New returns an empty path.
func New(opts ...Option) *Path {
	p := &Path{resolution: DefaultResolution}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Len returns the number of control points.
func (p *Path) Len() int {
	return len(p.points)
}

// Closed reports whether the last point connects back to the first.
func (p *Path) Closed() bool {
	return p.closed
}

// Resolution returns the samples per curve span.
func (p *Path) Resolution() int {
	return p.resolution
}

// Stale reports whether the caches are out of date (after ToggleClosed).
func (p *Path) Stale() bool {
	return p.stale
}

// Point returns the control point at idx.
func (p *Path) Point(idx int) (ControlPoint, error) {
	if idx < 0 || idx >= len(p.points) {
		return ControlPoint{}, fmt.Errorf("point %d of %d: %w", idx, len(p.points), ErrIndexOutOfRange)
	}
	return p.points[idx], nil
}

// Points returns a copy of the control points.
func (p *Path) Points() []ControlPoint {
	out := make([]ControlPoint, len(p.points))
	copy(out, p.points)
	return out
}

// Polyline returns the cached dense samples. The slices are shared with the
// path and must not be modified.
func (p *Path) Polyline() Polyline {
	return p.line
}

// Midpoints returns the arc-length midpoint of every span between two
// consecutive control points (one extra for the closing span of a closed path).
func (p *Path) Midpoints() []geom.Vec3 {
	out := make([]geom.Vec3, len(p.midpoints))
	copy(out, p.midpoints)
	return out
}

// AddPoint appends a straight control point.
func (p *Path) AddPoint(pos geom.Vec3) {
	p.points = append(p.points, ControlPoint{Position: pos, Type: p.tailType(), Scale: 1})
	p.Resample()
}

// InsertPoint inserts a control point before idx. idx == Len() appends.
// The new point inherits the segment type of the point it is inserted after,
// so splitting a span keeps its kind.
func (p *Path) InsertPoint(idx int, pos geom.Vec3) error {
	if idx < 0 || idx > len(p.points) {
		return fmt.Errorf("insert at %d of %d: %w", idx, len(p.points), ErrIndexOutOfRange)
	}
	typ := Straight
	if idx > 0 {
		typ = p.points[idx-1].Type
	}
	cp := ControlPoint{Position: pos, Type: typ, Scale: 1}
	p.points = append(p.points, ControlPoint{})
	copy(p.points[idx+1:], p.points[idx:])
	p.points[idx] = cp
	p.Resample()
	return nil
}

// SetPoint moves the control point at idx.
func (p *Path) SetPoint(idx int, pos geom.Vec3) error {
	if idx < 0 || idx >= len(p.points) {
		return fmt.Errorf("set point %d of %d: %w", idx, len(p.points), ErrIndexOutOfRange)
	}
	p.points[idx].Position = pos
	p.Resample()
	return nil
}

// RemovePoints deletes the control points in [from, to). The path is left
// untouched and ErrInvalidTopology returned if fewer than MinPoints would remain.
func (p *Path) RemovePoints(from, to int) error {
	if from < 0 || to > len(p.points) || from > to {
		return fmt.Errorf("remove [%d, %d) of %d: %w", from, to, len(p.points), ErrIndexOutOfRange)
	}
	if len(p.points)-(to-from) < MinPoints {
		return fmt.Errorf("remove [%d, %d) leaves %d points: %w", from, to, len(p.points)-(to-from), ErrInvalidTopology)
	}
	if from == to {
		return nil
	}
	p.points = append(p.points[:from], p.points[to:]...)
	p.Resample()
	return nil
}

// ToggleSegmentType flips the segment starting at idx between Straight and Curve.
func (p *Path) ToggleSegmentType(idx int) error {
	if len(p.points) < MinPoints {
		return fmt.Errorf("toggle segment on %d points: %w", len(p.points), ErrInvalidTopology)
	}
	if idx < 0 || idx >= len(p.points) {
		return fmt.Errorf("toggle segment %d of %d: %w", idx, len(p.points), ErrIndexOutOfRange)
	}
	if p.points[idx].Type == Straight {
		p.points[idx].Type = Curve
	} else {
		p.points[idx].Type = Straight
	}
	p.Resample()
	return nil
}

// SetSegmentType sets the segment type starting at idx.
func (p *Path) SetSegmentType(idx int, typ SegmentType) error {
	if idx < 0 || idx >= len(p.points) {
		return fmt.Errorf("set segment %d of %d: %w", idx, len(p.points), ErrIndexOutOfRange)
	}
	p.points[idx].Type = typ
	p.Resample()
	return nil
}

// SetScale sets the curve tension multiplier of the point at idx.
func (p *Path) SetScale(idx int, scale float64) error {
	if len(p.points) < MinPoints {
		return fmt.Errorf("set scale on %d points: %w", len(p.points), ErrInvalidTopology)
	}
	if idx < 0 || idx >= len(p.points) {
		return fmt.Errorf("set scale %d of %d: %w", idx, len(p.points), ErrIndexOutOfRange)
	}
	p.points[idx].Scale = scale
	p.Resample()
	return nil
}

// ToggleClosed flips the closed flag. It does not resample.
func (p *Path) ToggleClosed() error {
	if len(p.points) < MinPoints {
		return fmt.Errorf("toggle closed on %d points: %w", len(p.points), ErrInvalidTopology)
	}
	p.closed = !p.closed
	p.stale = true
	return nil
}

// Resample recomputes the polyline, arc table and midpoints from scratch.
func (p *Path) Resample() {
	p.stale = false
	if len(p.points) == 0 {
		p.line = Polyline{}
		p.midpoints = nil
		return
	}
	p.line = SamplePath(p)
	p.midpoints = spanMidpoints(p.line)
}

// tailType is the type a newly appended point takes: the same as the
// previous last point, so extending a curve keeps curving.
func (p *Path) tailType() SegmentType {
	if len(p.points) == 0 {
		return Straight
	}
	return p.points[len(p.points)-1].Type
}

// spanMidpoints returns the arc-length midpoint of each run between two
// consecutive knots.
func spanMidpoints(line Polyline) []geom.Vec3 {
	if len(line.Knots) < 2 {
		return nil
	}
	mids := make([]geom.Vec3, 0, len(line.Knots)-1)
	for i := 0; i+1 < len(line.Knots); i++ {
		mids = append(mids, Midpoint(line.Points[line.Knots[i]:line.Knots[i+1]+1]))
	}
	return mids
}

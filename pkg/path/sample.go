package path

import "github.com/chazu/brushline/pkg/geom"

// Polyline is the dense sampling of a path together with its arc-length table.
type Polyline struct {
	Points     []geom.Vec3 `json:"points"`
	Cumulative []float64   `json:"cumulative"` // Cumulative[i] is the arc length up to Points[i]
	Total      float64     `json:"total"`
	Knots      []int       `json:"knots"` // sample index of each control point in traversal order
}

// Len returns the number of samples.
func (l Polyline) Len() int {
	return len(l.Points)
}

// End returns the last sample, or the zero vector for an empty polyline.
func (l Polyline) End() geom.Vec3 {
	if len(l.Points) == 0 {
		return geom.Vec3{}
	}
	return l.Points[len(l.Points)-1]
}

// DistanceAt returns the arc length of point p lying on the edge that starts
// at sample seg.
func (l Polyline) DistanceAt(seg int, p geom.Vec3) float64 {
	if seg < 0 || seg >= len(l.Points) || len(l.Cumulative) != len(l.Points) {
		return 0
	}
	return l.Cumulative[seg] + l.Points[seg].Distance(p)
}

// PointAt returns the point at arc length d, clamped to the polyline ends.
func (l Polyline) PointAt(d float64) geom.Vec3 {
	switch {
	case len(l.Points) == 0:
		return geom.Vec3{}
	case d <= 0:
		return l.Points[0]
	case d >= l.Total:
		return l.End()
	}
	i := straddle(l.Cumulative, d)
	return lerpEdge(l.Points, l.Cumulative, i, d)
}

// SamplePath samples every segment of p and joins them without duplicating
// shared boundary points.
func SamplePath(p *Path) Polyline {
	switch len(p.points) {
	case 0:
		return Polyline{}
	case 1:
		return Polyline{
			Points:     []geom.Vec3{p.points[0].Position},
			Cumulative: []float64{0},
			Knots:      []int{0},
		}
	}

	var line Polyline
	for si, seg := range segmentsOf(p.points, p.closed) {
		samples := Sample(seg, p.resolution)
		step := 1
		if seg.Type == Curve {
			step = resolutionOrDefault(p.resolution)
		}

		start := len(line.Points)
		if si == 0 {
			line.Points = append(line.Points, samples...)
			line.Knots = append(line.Knots, 0)
		} else {
			start--
			line.Points = append(line.Points, samples[1:]...)
		}
		for k := 1; k < len(seg.Points); k++ {
			line.Knots = append(line.Knots, start+k*step)
		}
	}
	line.Total, line.Cumulative = ArcLength(line.Points)
	return line
}

// Sample returns the dense points of one segment. Straight segments return
// their control points verbatim. Curve segments are evaluated as a cubic
// Hermite spline with Catmull-Rom tangents scaled by each point's Scale,
// emitting resolution samples per span. The result passes exactly through
// every control point and is C¹ at interior knots.
func Sample(seg Segment, resolution int) []geom.Vec3 {
	if len(seg.Points) == 0 {
		return nil
	}
	if seg.Type == Straight || len(seg.Points) == 1 {
		out := make([]geom.Vec3, len(seg.Points))
		copy(out, seg.Points)
		return out
	}

	res := resolutionOrDefault(resolution)
	m := tangents(seg)
	spans := len(seg.Points) - 1
	out := make([]geom.Vec3, 0, spans*res+1)
	for i := 0; i < spans; i++ {
		p0, p1 := seg.Points[i], seg.Points[i+1]
		out = append(out, p0)
		for j := 1; j < res; j++ {
			t := float64(j) / float64(res)
			out = append(out, hermite(p0, m[i], p1, m[i+1], t))
		}
	}
	return append(out, seg.Points[spans])
}

// Tangent returns the derivative of the sampled curve at knot i of seg.
// Straight segments report the forward difference.
func Tangent(seg Segment, i int) geom.Vec3 {
	if i < 0 || i >= len(seg.Points) || len(seg.Points) < 2 {
		return geom.Vec3{}
	}
	if seg.Type == Curve {
		return tangents(seg)[i]
	}
	if i == len(seg.Points)-1 {
		return seg.Points[i].Sub(seg.Points[i-1])
	}
	return seg.Points[i+1].Sub(seg.Points[i])
}

// tangents computes the Catmull-Rom knot tangents. Open ends use one-sided
// differences; a Loop wraps around and repeats the first tangent at the end.
func tangents(seg Segment) []geom.Vec3 {
	pts := seg.Points
	n := len(pts)
	m := make([]geom.Vec3, n)
	scale := func(i int) float64 {
		if i < len(seg.Scales) {
			return seg.Scales[i]
		}
		return 1
	}

	if seg.Loop && n > 2 {
		k := n - 1 // distinct points in the cycle
		for i := 0; i < k; i++ {
			next := pts[(i+1)%k]
			prev := pts[(i-1+k)%k]
			m[i] = next.Sub(prev).Scale(0.5 * scale(i))
		}
		m[k] = m[0]
		return m
	}

	m[0] = pts[1].Sub(pts[0]).Scale(scale(0))
	for i := 1; i < n-1; i++ {
		m[i] = pts[i+1].Sub(pts[i-1]).Scale(0.5 * scale(i))
	}
	m[n-1] = pts[n-1].Sub(pts[n-2]).Scale(scale(n - 1))
	return m
}

// hermite evaluates the cubic Hermite basis on [p0, p1] at t.
func hermite(p0, m0, p1, m1 geom.Vec3, t float64) geom.Vec3 {
	t2 := t * t
	t3 := t2 * t
	h00 := 2*t3 - 3*t2 + 1
	h10 := t3 - 2*t2 + t
	h01 := -2*t3 + 3*t2
	h11 := t3 - t2
	return p0.Scale(h00).
		Add(m0.Scale(h10)).
		Add(p1.Scale(h01)).
		Add(m1.Scale(h11))
}

func resolutionOrDefault(n int) int {
	if n < 1 {
		return DefaultResolution
	}
	return n
}

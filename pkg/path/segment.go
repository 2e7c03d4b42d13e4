package path

import "github.com/chazu/brushline/pkg/geom"

// Segment is a maximal run of consecutive control points that share a
// segment type. Neighbouring segments share their boundary point.
type Segment struct {
	Type    SegmentType
	Points  []geom.Vec3
	Scales  []float64
	Indices []int // control point index of each entry; a closed run ends on its wrap index
	Loop    bool  // the run is the entire closed cycle
}

// Spans returns the number of point-to-point spans in the segment.
func (s Segment) Spans() int {
	if len(s.Points) == 0 {
		return 0
	}
	return len(s.Points) - 1
}

// GetSegments partitions the path into maximal same-type runs in one scan.
//
// Each control point tags the span that starts at it. On an open path the last
// point starts no span, so its tag is ignored. On a closed path the closing
// span (last point back to index 0) carries the last point's tag: when that
// matches the run in progress, index 0 is appended to that run instead of
// opening a separate two-point closing run.
func GetSegments(p *Path) []Segment {
	return segmentsOf(p.points, p.closed)
}

func segmentsOf(pts []ControlPoint, closed bool) []Segment {
	n := len(pts)
	if n < MinPoints {
		return nil
	}
	spans := n - 1
	if closed {
		spans = n
	}

	var segs []Segment
	for start := 0; start < spans; {
		typ := pts[start].Type
		end := start
		for end+1 < spans && pts[end+1].Type == typ {
			end++
		}

		seg := Segment{Type: typ}
		for i := start; i <= end+1; i++ {
			idx := i % n
			seg.Points = append(seg.Points, pts[idx].Position)
			seg.Scales = append(seg.Scales, pts[idx].Scale)
			seg.Indices = append(seg.Indices, idx)
		}
		segs = append(segs, seg)
		start = end + 1
	}

	if closed && len(segs) == 1 {
		segs[0].Loop = true
	}
	return segs
}

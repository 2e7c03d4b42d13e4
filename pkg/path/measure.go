package path

import "github.com/chazu/brushline/pkg/geom"

// ArcLength sums the Euclidean edge lengths of points. cumulative[0] is 0 and
// cumulative[len-1] equals total. Empty input yields 0 and a nil table.
func ArcLength(points []geom.Vec3) (total float64, cumulative []float64) {
	if len(points) == 0 {
		return 0, nil
	}
	cumulative = make([]float64, len(points))
	for i := 1; i < len(points); i++ {
		total += points[i].Distance(points[i-1])
		cumulative[i] = total
	}
	return total, cumulative
}

// Midpoint returns the point at half the arc length of points, not the
// average of the endpoints. Empty input yields the zero vector.
func Midpoint(points []geom.Vec3) geom.Vec3 {
	switch len(points) {
	case 0:
		return geom.Vec3{}
	case 1:
		return points[0]
	}
	total, cum := ArcLength(points)
	if total <= 0 {
		return points[0]
	}
	half := total / 2
	return lerpEdge(points, cum, straddle(cum, half), half)
}

// straddle returns the index i of the edge [i, i+1] whose cumulative range
// contains d, scanning linearly from the start.
func straddle(cum []float64, d float64) int {
	for i := 0; i+1 < len(cum); i++ {
		if cum[i+1] >= d {
			return i
		}
	}
	return len(cum) - 2
}

// lerpEdge interpolates the point at arc length d within edge i.
func lerpEdge(points []geom.Vec3, cum []float64, i int, d float64) geom.Vec3 {
	if i < 0 {
		return points[0]
	}
	span := cum[i+1] - cum[i]
	if span <= 0 {
		return points[i]
	}
	return points[i].Lerp(points[i+1], (d-cum[i])/span)
}

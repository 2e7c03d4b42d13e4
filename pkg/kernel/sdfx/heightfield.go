package sdfx

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/brushline/pkg/kernel"
)

// heightGrid is the sample count per side used to bound a height function.
const heightGrid = 64

// heightfieldSDF3 is a terrain column bounded by its footprint rectangle,
// a flat base and a height function on top. The vertical distance to the
// top is scaled by the inverse of the height function's Lipschitz bound so
// sphere tracing never overshoots a slope.
type heightfieldSDF3 struct {
	width, depth float64
	base         float64
	top          float64 // maximum height, for the bounding box
	slopeScale   float64
	height       kernel.HeightFunc
}

func newHeightfield(width, depth, base float64, height kernel.HeightFunc) *heightfieldSDF3 {
	top, slope := base, 0.0
	dx, dz := width/heightGrid, depth/heightGrid
	for i := 0; i <= heightGrid; i++ {
		for j := 0; j <= heightGrid; j++ {
			x, z := float64(i)*dx, float64(j)*dz
			h := height(x, z)
			top = math.Max(top, h)
			if i > 0 {
				slope = math.Max(slope, math.Abs(h-height(x-dx, z))/dx)
			}
			if j > 0 {
				slope = math.Max(slope, math.Abs(h-height(x, z-dz))/dz)
			}
		}
	}
	// Grid slopes underestimate between samples; pad the bounds.
	slope *= 1.5
	top += slope * math.Max(dx, dz) / 2
	return &heightfieldSDF3{
		width:      width,
		depth:      depth,
		base:       base,
		top:        top,
		slopeScale: 1 / math.Sqrt(1+2*slope*slope),
		height:     height,
	}
}

// Evaluate returns a conservative signed distance to the terrain surface.
func (h *heightfieldSDF3) Evaluate(p v3.Vec) float64 {
	x := math.Max(0, math.Min(h.width, p.X))
	z := math.Max(0, math.Min(h.depth, p.Z))
	surface := (p.Y - h.height(x, z)) * h.slopeScale

	// Side walls and base as an exact box distance.
	cx, cz := h.width/2, h.depth/2
	qx := math.Abs(p.X-cx) - cx
	qz := math.Abs(p.Z-cz) - cz
	qy := h.base - p.Y
	outside := math.Sqrt(sq(math.Max(qx, 0)) + sq(math.Max(qy, 0)) + sq(math.Max(qz, 0)))
	walls := outside + math.Min(math.Max(qx, math.Max(qy, qz)), 0)

	return math.Max(surface, walls)
}

// BoundingBox returns the footprint rectangle from base to the highest sample.
func (h *heightfieldSDF3) BoundingBox() sdf.Box3 {
	return sdf.Box3{
		Min: v3.Vec{X: 0, Y: h.base, Z: 0},
		Max: v3.Vec{X: h.width, Y: h.top, Z: h.depth},
	}
}

func sq(v float64) float64 { return v * v }

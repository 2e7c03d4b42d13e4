package scene

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// ErrNoLayers is returned when a layer map is built without masks.
var ErrNoLayers = errors.New("layer map needs at least one layer")

// LayerMap stores one grayscale weight raster per terrain paint layer, all
// at the same square resolution. Texel (0,0) is the terrain's minimum X/Z
// corner; image X runs along world X and image Y along world Z.
type LayerMap struct {
	size   int
	layers []*image.Gray
}

// NewLayerMap resamples every mask to size×size and reads its luminance as
// the layer weight. Mask i becomes layer i.
func NewLayerMap(size int, masks ...image.Image) (*LayerMap, error) {
	if size <= 0 {
		return nil, fmt.Errorf("layer map size %d must be positive", size)
	}
	if len(masks) == 0 {
		return nil, ErrNoLayers
	}
	m := &LayerMap{size: size, layers: make([]*image.Gray, len(masks))}
	for i, src := range masks {
		if src == nil {
			return nil, fmt.Errorf("layer %d: nil mask", i)
		}
		dst := image.NewGray(image.Rect(0, 0, size, size))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
		m.layers[i] = dst
	}
	return m, nil
}

// NewBlankLayerMap returns a map of n layers where the base layer is full
// and every other layer is empty.
func NewBlankLayerMap(size, n int) (*LayerMap, error) {
	if size <= 0 {
		return nil, fmt.Errorf("layer map size %d must be positive", size)
	}
	if n <= 0 {
		return nil, ErrNoLayers
	}
	m := &LayerMap{size: size, layers: make([]*image.Gray, n)}
	for i := range m.layers {
		m.layers[i] = image.NewGray(image.Rect(0, 0, size, size))
	}
	draw.Draw(m.layers[0], m.layers[0].Bounds(), image.White, image.Point{}, draw.Src)
	return m, nil
}

// Size returns the raster resolution per side.
func (m *LayerMap) Size() int {
	return m.size
}

// Layers returns the number of layers.
func (m *LayerMap) Layers() int {
	return len(m.layers)
}

// Image returns the raster of layer i, or nil.
func (m *LayerMap) Image(i int) *image.Gray {
	if i < 0 || i >= len(m.layers) {
		return nil
	}
	return m.layers[i]
}

// Weights returns the weight of every layer at the texel under (u, v),
// both in [0, 1] and clamped.
func (m *LayerMap) Weights(u, v float64) []float64 {
	x, y := m.texel(u), m.texel(v)
	out := make([]float64, len(m.layers))
	for i, g := range m.layers {
		out[i] = float64(g.GrayAt(x, y).Y) / 255
	}
	return out
}

func (m *LayerMap) texel(t float64) int {
	if math.IsNaN(t) {
		return 0
	}
	i := int(math.Floor(t * float64(m.size)))
	return max(0, min(m.size-1, i))
}

// Paint fills the polygon, given in [0, 1] UV coordinates, on layer i with
// weight w. Edges are antialiased.
func (m *LayerMap) Paint(i int, w float64, polygon [][2]float64) error {
	if i < 0 || i >= len(m.layers) {
		return fmt.Errorf("paint layer %d of %d: out of range", i, len(m.layers))
	}
	if len(polygon) < 3 {
		return fmt.Errorf("paint layer %d: polygon needs 3 vertices, got %d", i, len(polygon))
	}
	s := float32(m.size)
	ras := vector.NewRasterizer(m.size, m.size)
	ras.MoveTo(float32(polygon[0][0])*s, float32(polygon[0][1])*s)
	for _, p := range polygon[1:] {
		ras.LineTo(float32(p[0])*s, float32(p[1])*s)
	}
	ras.ClosePath()

	w = math.Max(0, math.Min(1, w))
	src := image.NewUniform(color.Gray{Y: uint8(math.Round(w * 255))})
	ras.Draw(m.layers[i], m.layers[i].Bounds(), src, image.Point{})
	return nil
}

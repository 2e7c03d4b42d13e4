// Package kernel defines the abstract geometry kernel interface used to
// build scene solids and query them with rays. Implementations (sdfx)
// provide solid modeling behind this interface so the scene never depends
// on a particular backend.
package kernel

import "github.com/chazu/brushline/pkg/geom"

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max geom.Vec3)
}

// HeightFunc returns the terrain height at (x, z) in the heightfield's
// local frame, x in [0, width] and z in [0, depth].
type HeightFunc func(x, z float64) float64

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Primitives
	Box(x, y, z float64) Solid // min corner at the origin
	Sphere(radius float64) Solid
	Cylinder(height, radius float64) Solid // axis along +Y, centered
	Heightfield(width, depth, base float64, height HeightFunc) Solid

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees

	// Queries
	Raycast(s Solid, ray geom.Ray, maxDist float64) (RayHit, bool)
}

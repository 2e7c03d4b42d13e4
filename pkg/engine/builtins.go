package engine

import (
	"fmt"
	"math"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/brushline/pkg/catalog"
	"github.com/chazu/brushline/pkg/distribute"
	"github.com/chazu/brushline/pkg/geom"
	"github.com/chazu/brushline/pkg/job"
	"github.com/chazu/brushline/pkg/kernel"
	"github.com/chazu/brushline/pkg/path"
	"github.com/chazu/brushline/pkg/placement"
	"github.com/chazu/brushline/pkg/scene"
)

// registerBuiltins installs the placement DSL into a zygomys environment.
// The builtins populate j during evaluation; unset values come from s.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, j *job.Job, s Settings) {
	registerGeometry(env, j)
	registerPaths(env, j, s)
	registerCatalog(env, j)
	registerScene(env, j, s)
	registerRuns(env, j, s)
}

// ---------------------------------------------------------------------------
// Vectors and solids
// ---------------------------------------------------------------------------

func registerGeometry(env *zygo.Zlisp, j *job.Job) {
	// (vec3 1 2 3)
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		v, err := numbers3(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: %w", err)
		}
		return &sexpVec3{vec: v}, nil
	})

	// (box 2 1 4): min corner at the origin.
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		v, err := positionArg(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box: %w", err)
		}
		if v.X <= 0 || v.Y <= 0 || v.Z <= 0 {
			return zygo.SexpNull, fmt.Errorf("box: size %s must be positive", v)
		}
		return &sexpSolid{solid: j.Kernel.Box(v.X, v.Y, v.Z), kind: "box"}, nil
	})

	// (sphere 1.5): centered on the origin.
	env.AddFunction("sphere", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("sphere requires a radius")
		}
		r, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sphere: radius: %w", err)
		}
		if r <= 0 {
			return zygo.SexpNull, fmt.Errorf("sphere: radius %g must be positive", r)
		}
		return &sexpSolid{solid: j.Kernel.Sphere(r), kind: "sphere"}, nil
	})

	// (cylinder :height 3 :radius 0.5) or (cylinder 3 0.5): upright on Y.
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only("height", "radius"); err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: %w", err)
		}
		var h, r float64
		if len(pa.positional) == 2 {
			var err error
			if h, err = toFloat64(pa.positional[0]); err != nil {
				return zygo.SexpNull, fmt.Errorf("cylinder: height: %w", err)
			}
			if r, err = toFloat64(pa.positional[1]); err != nil {
				return zygo.SexpNull, fmt.Errorf("cylinder: radius: %w", err)
			}
		}
		if err := pa.float("height", &h); err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: %w", err)
		}
		if err := pa.float("radius", &r); err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: %w", err)
		}
		if h <= 0 || r <= 0 {
			return zygo.SexpNull, fmt.Errorf("cylinder: height %g and radius %g must be positive", h, r)
		}
		return &sexpSolid{solid: j.Kernel.Cylinder(h, r), kind: "cylinder"}, nil
	})

	// (translate solid 1 0 2) or (translate solid (vec3 1 0 2))
	env.AddFunction("translate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		s, v, err := solidAndVector(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("translate: %w", err)
		}
		return &sexpSolid{solid: j.Kernel.Translate(s, v.X, v.Y, v.Z), kind: "translate"}, nil
	})

	// (rotate solid 0 45 0): Euler angles in degrees.
	env.AddFunction("rotate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		s, v, err := solidAndVector(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rotate: %w", err)
		}
		return &sexpSolid{solid: j.Kernel.Rotate(s, v.X, v.Y, v.Z), kind: "rotate"}, nil
	})

	csg := map[string]func(a, b kernel.Solid) kernel.Solid{
		"union":        j.Kernel.Union,
		"difference":   j.Kernel.Difference,
		"intersection": j.Kernel.Intersection,
	}
	for op, combine := range csg {
		// (union a b c ...) folds left.
		env.AddFunction(op, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) < 2 {
				return zygo.SexpNull, fmt.Errorf("%s requires at least 2 solids, got %d", op, len(args))
			}
			acc, err := toSolid(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", op, err)
			}
			for i, arg := range args[1:] {
				next, err := toSolid(arg)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: argument %d: %w", op, i+2, err)
				}
				acc = combine(acc, next)
			}
			return &sexpSolid{solid: acc, kind: op}, nil
		})
	}
}

// numbers3 reads three numbers.
func numbers3(args []zygo.Sexp) (geom.Vec3, error) {
	var c [3]float64
	for i, a := range args[:3] {
		f, err := toFloat64(a)
		if err != nil {
			return geom.Vec3{}, fmt.Errorf("%c: %w", "xyz"[i], err)
		}
		c[i] = f
	}
	return geom.V(c[0], c[1], c[2]), nil
}

// positionArg reads either one vec3 or three numbers.
func positionArg(args []zygo.Sexp) (geom.Vec3, error) {
	switch len(args) {
	case 1:
		return toVec3(args[0])
	case 3:
		return numbers3(args)
	}
	return geom.Vec3{}, fmt.Errorf("expected a vec3 or 3 numbers, got %d arguments", len(args))
}

func solidAndVector(args []zygo.Sexp) (kernel.Solid, geom.Vec3, error) {
	if len(args) < 2 {
		return nil, geom.Vec3{}, fmt.Errorf("requires a solid and a vector")
	}
	s, err := toSolid(args[0])
	if err != nil {
		return nil, geom.Vec3{}, err
	}
	v, err := positionArg(args[1:])
	if err != nil {
		return nil, geom.Vec3{}, err
	}
	return s, v, nil
}

// ---------------------------------------------------------------------------
// Paths
// ---------------------------------------------------------------------------

func registerPaths(env *zygo.Zlisp, j *job.Job, s Settings) {
	// (pt 0 0 0 :type :curve :scale 1.5) or (pt (vec3 0 0 0))
	env.AddFunction("pt", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only("type", "scale"); err != nil {
			return zygo.SexpNull, fmt.Errorf("pt: %w", err)
		}
		pos, err := positionArg(pa.positional)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("pt: %w", err)
		}
		cp := path.ControlPoint{Position: pos, Type: path.Straight, Scale: 1}

		var typ string
		if err := pa.string("type", &typ); err != nil {
			return zygo.SexpNull, fmt.Errorf("pt: %w", err)
		}
		if typ != "" {
			if cp.Type, err = path.ParseSegmentType(typ); err != nil {
				return zygo.SexpNull, fmt.Errorf("pt: %w", err)
			}
		}
		if err := pa.float("scale", &cp.Scale); err != nil {
			return zygo.SexpNull, fmt.Errorf("pt: %w", err)
		}
		return &sexpPoint{cp: cp}, nil
	})

	// (path "fence" :closed false :resolution 24 (pt ...) (vec3 ...) ...)
	env.AddFunction("path", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only("closed", "resolution"); err != nil {
			return zygo.SexpNull, fmt.Errorf("path: %w", err)
		}
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("path requires a name argument")
		}
		pathName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("path: name: %w", err)
		}

		res := s.Resolution
		if err := pa.int("resolution", &res); err != nil {
			return zygo.SexpNull, fmt.Errorf("path %q: %w", pathName, err)
		}
		if res <= 0 {
			return zygo.SexpNull, fmt.Errorf("path %q: resolution %d must be positive", pathName, res)
		}
		var closed bool
		if err := pa.bool("closed", &closed); err != nil {
			return zygo.SexpNull, fmt.Errorf("path %q: %w", pathName, err)
		}

		var cps []path.ControlPoint
		for _, arg := range pa.positional[1:] {
			got, err := toControlPoints(arg)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("path %q: point %d: %w", pathName, len(cps), err)
			}
			cps = append(cps, got...)
		}

		p := path.New(path.WithResolution(res), path.WithClosed(closed))
		for _, cp := range cps {
			p.AddPoint(cp.Position)
		}
		for i, cp := range cps {
			if err := p.SetSegmentType(i, cp.Type); err != nil {
				return zygo.SexpNull, fmt.Errorf("path %q: %w", pathName, err)
			}
			if p.Len() >= path.MinPoints {
				if err := p.SetScale(i, cp.Scale); err != nil {
					return zygo.SexpNull, fmt.Errorf("path %q: %w", pathName, err)
				}
			}
		}
		if err := j.AddPath(pathName, p); err != nil {
			return zygo.SexpNull, err
		}
		return &sexpPath{name: pathName, path: p}, nil
	})
}

// toControlPoints accepts a pt, a bare vec3, or a list of either.
func toControlPoints(s zygo.Sexp) ([]path.ControlPoint, error) {
	switch v := s.(type) {
	case *sexpPoint:
		return []path.ControlPoint{v.cp}, nil
	case *sexpVec3:
		return []path.ControlPoint{{Position: v.vec, Type: path.Straight, Scale: 1}}, nil
	}
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, fmt.Errorf("expected pt or vec3: %w", err)
	}
	var out []path.ControlPoint
	for _, it := range items {
		got, err := toControlPoints(it)
		if err != nil {
			return nil, err
		}
		out = append(out, got...)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

func registerCatalog(env *zygo.Zlisp, j *job.Job) {
	// (item "post" :size (vec3 0.2 1 0.2) :pivot (vec3 0 0.5 0) :weight 2)
	env.AddFunction("item", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only("size", "pivot", "weight"); err != nil {
			return zygo.SexpNull, fmt.Errorf("item: %w", err)
		}
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("item requires a name argument")
		}
		itemName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("item: name: %w", err)
		}
		if _, ok := pa.kw["size"]; !ok {
			return zygo.SexpNull, fmt.Errorf("item %q: :size is required", itemName)
		}

		it := catalog.Item{Name: itemName, Weight: 1}
		if err := pa.vec3("size", &it.Size); err != nil {
			return zygo.SexpNull, fmt.Errorf("item %q: %w", itemName, err)
		}
		if err := pa.vec3("pivot", &it.PivotOffset); err != nil {
			return zygo.SexpNull, fmt.Errorf("item %q: %w", itemName, err)
		}
		if err := pa.float("weight", &it.Weight); err != nil {
			return zygo.SexpNull, fmt.Errorf("item %q: %w", itemName, err)
		}
		if err := j.AddItem(it); err != nil {
			return zygo.SexpNull, err
		}
		return &sexpItem{name: itemName}, nil
	})
}

// ---------------------------------------------------------------------------
// Scene
// ---------------------------------------------------------------------------

func registerScene(env *zygo.Zlisp, j *job.Job, s Settings) {
	// (surface "rock" (sphere 1) :tag "rock" :hidden false)
	env.AddFunction("surface", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only("tag", "hidden"); err != nil {
			return zygo.SexpNull, fmt.Errorf("surface: %w", err)
		}
		if len(pa.positional) != 2 {
			return zygo.SexpNull, fmt.Errorf("surface requires a name and a solid")
		}
		objName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("surface: name: %w", err)
		}
		solid, err := toSolid(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("surface %q: %w", objName, err)
		}
		var tag string
		var hidden bool
		if err := pa.string("tag", &tag); err != nil {
			return zygo.SexpNull, fmt.Errorf("surface %q: %w", objName, err)
		}
		if err := pa.bool("hidden", &hidden); err != nil {
			return zygo.SexpNull, fmt.Errorf("surface %q: %w", objName, err)
		}

		var opts []scene.ObjectOption
		if hidden {
			opts = append(opts, scene.Hidden())
		}
		obj, err := j.Scene.Add(objName, tag, solid, opts...)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpSurface{obj: obj}, nil
	})

	// (terrain "ground" :width 40 :depth 40 :height 0 :slope-x 0.1
	//          :at (vec3 -20 0 -20) :layers 3)
	env.AddFunction("terrain", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		err := pa.only("width", "depth", "base", "height", "slope-x", "slope-z",
			"ripple", "wavelength", "at", "layers", "tag", "hidden")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("terrain: %w", err)
		}
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("terrain requires a name argument")
		}
		objName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("terrain: name: %w", err)
		}
		fail := func(err error) (zygo.Sexp, error) {
			return zygo.SexpNull, fmt.Errorf("terrain %q: %w", objName, err)
		}

		t := terrainSpec{wavelength: 10, layers: 1, tag: "terrain"}
		for key, dst := range map[string]*float64{
			"width": &t.width, "depth": &t.depth, "height": &t.height,
			"slope-x": &t.slopeX, "slope-z": &t.slopeZ,
			"ripple": &t.ripple, "wavelength": &t.wavelength,
		} {
			if err := pa.float(key, dst); err != nil {
				return fail(err)
			}
		}
		t.base = t.lowest() - 1
		if err := pa.float("base", &t.base); err != nil {
			return fail(err)
		}
		if err := pa.vec3("at", &t.at); err != nil {
			return fail(err)
		}
		if err := pa.int("layers", &t.layers); err != nil {
			return fail(err)
		}
		if err := pa.string("tag", &t.tag); err != nil {
			return fail(err)
		}
		if err := pa.bool("hidden", &t.hidden); err != nil {
			return fail(err)
		}
		if err := t.check(); err != nil {
			return fail(err)
		}

		solid := j.Kernel.Heightfield(t.width, t.depth, t.base, t.heightFunc())
		if !t.at.IsZero() {
			solid = j.Kernel.Translate(solid, t.at.X, t.at.Y, t.at.Z)
		}
		layers, err := scene.NewBlankLayerMap(s.LayerResolution, t.layers)
		if err != nil {
			return fail(err)
		}
		opts := []scene.ObjectOption{scene.WithLayers(layers)}
		if t.hidden {
			opts = append(opts, scene.Hidden())
		}
		obj, err := j.Scene.Add(objName, t.tag, solid, opts...)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpSurface{obj: obj}, nil
	})

	// (paint ground :layer 1 :weight 1 (vec3 0 0 0) (vec3 5 0 0) (vec3 5 0 5))
	// Vertices are world positions; only X and Z are used.
	env.AddFunction("paint", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only("layer", "weight"); err != nil {
			return zygo.SexpNull, fmt.Errorf("paint: %w", err)
		}
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("paint requires a terrain")
		}
		objName, err := toName(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("paint: terrain: %w", err)
		}
		obj, ok := j.Scene.Object(objName)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("paint: no surface named %q", objName)
		}
		if obj.Layers() == nil {
			return zygo.SexpNull, fmt.Errorf("paint: %q is not a terrain", objName)
		}

		layer, weight := 1, 1.0
		if err := pa.int("layer", &layer); err != nil {
			return zygo.SexpNull, fmt.Errorf("paint %q: %w", objName, err)
		}
		if err := pa.float("weight", &weight); err != nil {
			return zygo.SexpNull, fmt.Errorf("paint %q: %w", objName, err)
		}

		lo, hi := obj.Solid().BoundingBox()
		size := hi.Sub(lo)
		var polygon [][2]float64
		for _, arg := range pa.positional[1:] {
			pts, err := toControlPoints(arg)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("paint %q: %w", objName, err)
			}
			for _, cp := range pts {
				polygon = append(polygon, [2]float64{
					(cp.Position.X - lo.X) / size.X,
					(cp.Position.Z - lo.Z) / size.Z,
				})
			}
		}
		if err := obj.Layers().Paint(layer, weight, polygon); err != nil {
			return zygo.SexpNull, fmt.Errorf("paint %q: %w", objName, err)
		}
		return &sexpSurface{obj: obj}, nil
	})
}

// terrainSpec is the parsed form of a terrain statement. Heights are
// height + slopeX*x + slopeZ*z plus a ripple term, in local coordinates.
type terrainSpec struct {
	width, depth   float64
	base, height   float64
	slopeX, slopeZ float64
	ripple         float64
	wavelength     float64
	at             geom.Vec3
	layers         int
	tag            string
	hidden         bool
}

func (t terrainSpec) heightFunc() kernel.HeightFunc {
	k := 2 * math.Pi / t.wavelength
	return func(x, z float64) float64 {
		return t.height + t.slopeX*x + t.slopeZ*z + t.ripple*math.Sin(k*x)*math.Cos(k*z)
	}
}

// lowest bounds the height function from below over the footprint.
func (t terrainSpec) lowest() float64 {
	return t.height + math.Min(0, t.slopeX*t.width) + math.Min(0, t.slopeZ*t.depth) - math.Abs(t.ripple)
}

func (t terrainSpec) check() error {
	switch {
	case t.width <= 0 || t.depth <= 0:
		return fmt.Errorf("width %g and depth %g must be positive", t.width, t.depth)
	case t.wavelength <= 0:
		return fmt.Errorf("wavelength %g must be positive", t.wavelength)
	case t.layers < 1:
		return fmt.Errorf("layers %d must be at least 1", t.layers)
	case t.base >= t.lowest():
		return fmt.Errorf("base %g must lie below the lowest height %g", t.base, t.lowest())
	}
	return nil
}

// ---------------------------------------------------------------------------
// Runs
// ---------------------------------------------------------------------------

func registerRuns(env *zygo.Zlisp, j *job.Job, s Settings) {
	// (spacing :mode :bounds :gap 0.1) or (spacing :mode :constant :spacing 2)
	env.AddFunction("spacing", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only("mode", "gap", "spacing"); err != nil {
			return zygo.SexpNull, fmt.Errorf("spacing: %w", err)
		}
		pol := s.Spacing
		var mode string
		if err := pa.string("mode", &mode); err != nil {
			return zygo.SexpNull, fmt.Errorf("spacing: %w", err)
		}
		if mode != "" {
			m, err := distribute.ParseMode(mode)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("spacing: %w", err)
			}
			pol.Mode = m
		}
		if err := pa.float("gap", &pol.Gap); err != nil {
			return zygo.SexpNull, fmt.Errorf("spacing: %w", err)
		}
		if err := pa.float("spacing", &pol.Spacing); err != nil {
			return zygo.SexpNull, fmt.Errorf("spacing: %w", err)
		}
		return &sexpSpacing{policy: pol}, nil
	})

	// (sequence "post" "rail" :mode :weighted :seed 7 :count 20)
	env.AddFunction("sequence", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only("items", "mode", "seed", "count"); err != nil {
			return zygo.SexpNull, fmt.Errorf("sequence: %w", err)
		}
		var spec job.SequenceSpec
		for _, arg := range pa.positional {
			names, err := toStringList(arg)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("sequence: %w", err)
			}
			spec.Items = append(spec.Items, names...)
		}
		var listed []string
		if err := pa.strings("items", &listed); err != nil {
			return zygo.SexpNull, fmt.Errorf("sequence: %w", err)
		}
		spec.Items = append(spec.Items, listed...)

		var mode string
		if err := pa.string("mode", &mode); err != nil {
			return zygo.SexpNull, fmt.Errorf("sequence: %w", err)
		}
		if mode != "" {
			m, err := catalog.ParseMode(mode)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("sequence: %w", err)
			}
			spec.Mode = m
		}
		var seed int
		if err := pa.int("seed", &seed); err != nil {
			return zygo.SexpNull, fmt.Errorf("sequence: %w", err)
		}
		if seed < 0 {
			return zygo.SexpNull, fmt.Errorf("sequence: seed %d must not be negative", seed)
		}
		spec.Seed = uint64(seed)
		if err := pa.int("count", &spec.Count); err != nil {
			return zygo.SexpNull, fmt.Errorf("sequence: %w", err)
		}
		if spec.Count < 0 {
			return zygo.SexpNull, fmt.Errorf("sequence: count %d must not be negative", spec.Count)
		}
		return &sexpSequence{spec: spec}, nil
	})

	// (placement "fence" :path fence :sequence seq :spacing sp :mode :on-surface ...)
	env.AddFunction("placement", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		err := pa.only("path", "sequence", "spacing", "mode", "along", "perpendicular",
			"embed", "embed-max-probe", "probe-height", "offset", "scale",
			"tags", "exclude", "layers", "invisible-transparent")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("placement: %w", err)
		}
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("placement requires a name argument")
		}
		runName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("placement: name: %w", err)
		}
		r, err := buildRun(runName, pa, s)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("placement %q: %w", runName, err)
		}
		if err := j.AddRun(r); err != nil {
			return zygo.SexpNull, err
		}
		return &sexpRun{name: runName}, nil
	})
}

func buildRun(name string, pa kwArgs, s Settings) (job.Run, error) {
	r := job.Run{Name: name, Spacing: s.Spacing, Options: s.Placement}
	r.Options.Filters = cloneFilters(s.Placement.Filters)

	v, ok := pa.kw["path"]
	if !ok {
		return job.Run{}, fmt.Errorf(":path is required")
	}
	pathName, err := toName(v)
	if err != nil {
		return job.Run{}, fmt.Errorf("path: %w", err)
	}
	r.Path = pathName

	if v, ok := pa.kw["sequence"]; ok {
		switch seq := v.(type) {
		case *sexpSequence:
			r.Sequence = seq.spec
		default:
			names, err := toStringList(v)
			if err != nil {
				return job.Run{}, fmt.Errorf("sequence: %w", err)
			}
			r.Sequence.Items = names
		}
	}
	if v, ok := pa.kw["spacing"]; ok {
		sp, ok := v.(*sexpSpacing)
		if !ok {
			return job.Run{}, fmt.Errorf("spacing: expected spacing, got %T (%s)", v, v.SexpString(nil))
		}
		r.Spacing = sp.policy
	}

	var mode string
	if err := pa.string("mode", &mode); err != nil {
		return job.Run{}, err
	}
	if mode != "" {
		if r.Options.Mode, err = placement.ParseMode(mode); err != nil {
			return job.Run{}, err
		}
	}
	if v, ok := pa.kw["along"]; ok {
		a, err := toAxis(v)
		if err != nil {
			return job.Run{}, fmt.Errorf("along: %w", err)
		}
		if a == geom.AxisY {
			return job.Run{}, fmt.Errorf("along: items follow the path along :x or :z, not :y")
		}
		r.Options.Along = a
	}

	o := &r.Options
	for key, dst := range map[string]*bool{
		"perpendicular":         &o.Perpendicular,
		"embed":                 &o.Embed,
		"invisible-transparent": &o.Filters.InvisibleTransparent,
	} {
		if err := pa.bool(key, dst); err != nil {
			return job.Run{}, err
		}
	}
	for key, dst := range map[string]*float64{
		"embed-max-probe": &o.EmbedMaxProbe,
		"probe-height":    &o.ProbeHeight,
		"offset":          &o.Offset,
		"scale":           &o.Scale,
	} {
		if err := pa.float(key, dst); err != nil {
			return job.Run{}, err
		}
	}
	if err := pa.strings("tags", &o.Filters.Tags); err != nil {
		return job.Run{}, err
	}
	if err := pa.strings("exclude", &o.Filters.Exclude); err != nil {
		return job.Run{}, err
	}
	if v, ok := pa.kw["layers"]; ok {
		layers, err := toIntList(v)
		if err != nil {
			return job.Run{}, fmt.Errorf("layers: %w", err)
		}
		o.Filters.TerrainLayers = layers
	}
	return r, nil
}

package engine

import (
	"fmt"
	"slices"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/brushline/pkg/distribute"
	"github.com/chazu/brushline/pkg/geom"
	"github.com/chazu/brushline/pkg/job"
	"github.com/chazu/brushline/pkg/kernel"
	"github.com/chazu/brushline/pkg/path"
	"github.com/chazu/brushline/pkg/scene"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

type sexpVec3 struct {
	vec geom.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpPoint is a control point returned by `pt` and consumed by `path`.
type sexpPoint struct {
	cp path.ControlPoint
}

func (p *sexpPoint) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(pt %g %g %g :type :%s)", p.cp.Position.X, p.cp.Position.Y, p.cp.Position.Z, p.cp.Type)
}
func (p *sexpPoint) Type() *zygo.RegisteredType { return nil }

type sexpPath struct {
	name string
	path *path.Path
}

func (p *sexpPath) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(path %q)", p.name)
}
func (p *sexpPath) Type() *zygo.RegisteredType { return nil }

type sexpItem struct {
	name string
}

func (it *sexpItem) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(item %q)", it.name)
}
func (it *sexpItem) Type() *zygo.RegisteredType { return nil }

// sexpSolid is an unplaced kernel solid. It becomes part of the scene only
// when passed to `surface`.
type sexpSolid struct {
	solid kernel.Solid
	kind  string
}

func (s *sexpSolid) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s)", s.kind)
}
func (s *sexpSolid) Type() *zygo.RegisteredType { return nil }

// sexpSurface is an object already added to the scene.
type sexpSurface struct {
	obj *scene.Object
}

func (s *sexpSurface) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(surface %q :tag %q)", s.obj.ID(), s.obj.Tag())
}
func (s *sexpSurface) Type() *zygo.RegisteredType { return nil }

type sexpSpacing struct {
	policy distribute.SpacingPolicy
}

func (s *sexpSpacing) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(spacing :mode :%s :gap %g :spacing %g)", s.policy.Mode, s.policy.Gap, s.policy.Spacing)
}
func (s *sexpSpacing) Type() *zygo.RegisteredType { return nil }

type sexpSequence struct {
	spec job.SequenceSpec
}

func (s *sexpSequence) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(sequence :mode :%s :count %d)", s.spec.Mode, s.spec.Count)
}
func (s *sexpSequence) Type() *zygo.RegisteredType { return nil }

type sexpRun struct {
	name string
}

func (r *sexpRun) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(placement %q)", r.name)
}
func (r *sexpRun) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value: a flag.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// only rejects keywords outside allowed, so a typo is reported instead of
// silently ignored.
func (a kwArgs) only(allowed ...string) error {
	var unknown []string
	for k := range a.kw {
		if !slices.Contains(allowed, k) {
			unknown = append(unknown, ":"+k)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	slices.Sort(unknown)
	return fmt.Errorf("unknown keyword %s", strings.Join(unknown, ", "))
}

func (a kwArgs) float(key string, dst *float64) error {
	v, ok := a.kw[key]
	if !ok {
		return nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = f
	return nil
}

func (a kwArgs) int(key string, dst *int) error {
	v, ok := a.kw[key]
	if !ok {
		return nil
	}
	n, err := toInt(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func (a kwArgs) bool(key string, dst *bool) error {
	v, ok := a.kw[key]
	if !ok {
		return nil
	}
	b, err := toBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

func (a kwArgs) string(key string, dst *string) error {
	v, ok := a.kw[key]
	if !ok {
		return nil
	}
	s, err := toKeywordString(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = s
	return nil
}

func (a kwArgs) vec3(key string, dst *geom.Vec3) error {
	v, ok := a.kw[key]
	if !ok {
		return nil
	}
	vec, err := toVec3(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = vec
	return nil
}

func (a kwArgs) strings(key string, dst *[]string) error {
	v, ok := a.kw[key]
	if !ok {
		return nil
	}
	ss, err := toStringList(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = ss
	return nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

func toInt(s zygo.Sexp) (int, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		if v.Val == float64(int(v.Val)) {
			return int(v.Val), nil
		}
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toBool accepts true/false. A trailing keyword with no value is a flag and
// reads as true.
func toBool(s zygo.Sexp) (bool, error) {
	switch v := s.(type) {
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return true, nil
		}
	}
	return false, fmt.Errorf("expected true or false, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_z) and plain strings ("z").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toAxis converts a keyword or string to a geom.Axis.
func toAxis(s zygo.Sexp) (geom.Axis, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return 0, fmt.Errorf("expected axis keyword (:x, :y, :z): %w", err)
	}
	return geom.ParseAxis(name)
}

// toVec3 extracts a Vec3 from a sexpVec3.
func toVec3(s zygo.Sexp) (geom.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return geom.Vec3{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toSolid accepts an unplaced solid or a scene surface.
func toSolid(s zygo.Sexp) (kernel.Solid, error) {
	switch v := s.(type) {
	case *sexpSolid:
		return v.solid, nil
	case *sexpSurface:
		return v.obj.Solid(), nil
	}
	return nil, fmt.Errorf("expected solid, got %T (%s)", s, s.SexpString(nil))
}

// toName accepts a string, keyword or any named reference.
func toName(s zygo.Sexp) (string, error) {
	switch v := s.(type) {
	case *sexpPath:
		return v.name, nil
	case *sexpItem:
		return v.name, nil
	case *sexpSurface:
		return v.obj.ID(), nil
	case *sexpRun:
		return v.name, nil
	}
	name, err := toKeywordString(s)
	if err != nil {
		return "", fmt.Errorf("expected name: %w", err)
	}
	return name, nil
}

// toStringList converts a list of names. A single name is a one-element list.
func toStringList(s zygo.Sexp) ([]string, error) {
	if _, ok := s.(*zygo.SexpStr); ok {
		name, err := toName(s)
		if err != nil {
			return nil, err
		}
		return []string{name}, nil
	}
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		name, err := toName(it)
		if err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, nil
}

func toIntList(s zygo.Sexp) ([]int, error) {
	if _, ok := s.(*zygo.SexpInt); ok {
		n, err := toInt(s)
		return []int{n}, err
	}
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	out := make([]int, 0, len(items))
	for _, it := range items {
		n, err := toInt(it)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

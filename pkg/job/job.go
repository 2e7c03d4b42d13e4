// Package job bundles everything one placement script describes: the scene
// to place onto, the item catalog, named paths and the placement runs over
// them. A Job is built by the engine, checked with Validate, then executed
// with Place.
package job

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/chazu/brushline/pkg/catalog"
	"github.com/chazu/brushline/pkg/distribute"
	"github.com/chazu/brushline/pkg/kernel"
	"github.com/chazu/brushline/pkg/path"
	"github.com/chazu/brushline/pkg/placement"
	"github.com/chazu/brushline/pkg/scene"
	"github.com/chazu/brushline/pkg/surface"
)

// Sentinel errors.
var (
	ErrDuplicate   = errors.New("duplicate name")
	ErrUnknownPath = errors.New("unknown path")
	ErrUnknownItem = errors.New("unknown item")
	ErrInvalid     = errors.New("job has validation errors")
)

// MaxAutoCount caps the sequence length derived from a path's length.
const MaxAutoCount = 10000

// SequenceSpec describes how a run draws its items from the catalog.
type SequenceSpec struct {
	Items []string     `json:"items,omitempty" yaml:"items,omitempty"` // empty: every catalog item
	Mode  catalog.Mode `json:"mode" yaml:"mode"`
	Seed  uint64       `json:"seed" yaml:"seed"`
	Count int          `json:"count" yaml:"count"` // 0: as many as the path can hold
}

// Run is one placement pass: a sequence distributed along a path.
type Run struct {
	Name     string
	Path     string
	Sequence SequenceSpec
	Spacing  distribute.SpacingPolicy
	Options  placement.Options
}

// Result is the output of one run.
type Result struct {
	Run        string                `json:"run" yaml:"run"`
	Path       string                `json:"path" yaml:"path"`
	Length     float64               `json:"length" yaml:"length"`
	Placements []placement.Placement `json:"placements" yaml:"placements"`
}

// Job is the evaluated content of a script.
type Job struct {
	Kernel  kernel.Kernel
	Scene   *scene.Scene
	Catalog *catalog.Catalog

	// MaxDistance bounds every surface probe; 0 uses surface.DefaultMaxDistance.
	MaxDistance float64

	paths     map[string]*path.Path
	pathOrder []string
	runs      []Run
}

// New returns an empty job whose scene is built with k.
func New(k kernel.Kernel) *Job {
	return &Job{
		Kernel:  k,
		Scene:   scene.New(k),
		Catalog: catalog.New(catalog.Ordered, 0),
		paths:   make(map[string]*path.Path),
	}
}

// AddPath registers a path under a unique name.
func (j *Job) AddPath(name string, p *path.Path) error {
	if _, ok := j.paths[name]; ok {
		return fmt.Errorf("path %q: %w", name, ErrDuplicate)
	}
	j.paths[name] = p
	j.pathOrder = append(j.pathOrder, name)
	return nil
}

// Path returns the named path.
func (j *Job) Path(name string) (*path.Path, bool) {
	p, ok := j.paths[name]
	return p, ok
}

// PathNames returns path names in definition order.
func (j *Job) PathNames() []string {
	return slices.Clone(j.pathOrder)
}

// AddItem adds a uniquely named item to the catalog.
func (j *Job) AddItem(it catalog.Item) error {
	if _, ok := j.Catalog.Lookup(it.Name); ok {
		return fmt.Errorf("item %q: %w", it.Name, ErrDuplicate)
	}
	j.Catalog.Add(it)
	return nil
}

// AddRun appends a uniquely named run.
func (j *Job) AddRun(r Run) error {
	for _, have := range j.runs {
		if have.Name == r.Name {
			return fmt.Errorf("run %q: %w", r.Name, ErrDuplicate)
		}
	}
	j.runs = append(j.runs, r)
	return nil
}

// Runs returns the runs in definition order.
func (j *Job) Runs() []Run {
	return slices.Clone(j.runs)
}

// Projector returns the surface projector used for every run.
func (j *Job) Projector() *surface.Projector {
	return j.Scene.Projector(j.MaxDistance)
}

// Sequence resolves the item sequence of run r.
func (j *Job) Sequence(r Run) ([]catalog.Item, error) {
	items := j.Catalog.Items()
	if len(r.Sequence.Items) > 0 {
		items = items[:0:0]
		for _, name := range r.Sequence.Items {
			it, ok := j.Catalog.Lookup(name)
			if !ok {
				return nil, fmt.Errorf("run %q: item %q: %w", r.Name, name, ErrUnknownItem)
			}
			items = append(items, it)
		}
	}

	n := r.Sequence.Count
	if n <= 0 {
		p, ok := j.paths[r.Path]
		if !ok {
			return nil, fmt.Errorf("run %q: path %q: %w", r.Name, r.Path, ErrUnknownPath)
		}
		n = autoCount(p, items, r)
	}
	return catalog.New(r.Sequence.Mode, r.Sequence.Seed, items...).Sequence(n), nil
}

// autoCount is an upper bound on how many items fit along p: the path
// length over the smallest reserved length, plus one. Distribute stops at
// the path end, so surplus items are never placed.
func autoCount(p *path.Path, items []catalog.Item, r Run) int {
	if len(items) == 0 {
		return 0
	}
	if p.Stale() {
		p.Resample()
	}
	total := p.Polyline().Total
	smallest := math.Inf(1)
	for _, fp := range placement.Footprints(items, r.Options) {
		smallest = math.Min(smallest, r.Spacing.Reserved(fp))
	}
	if smallest <= 0 {
		return len(items)
	}
	n := int(math.Ceil(total/smallest)) + 1
	return min(n, MaxAutoCount)
}

// Place validates the job and executes every run in order. A job with
// validation errors is not executed.
func (j *Job) Place(logger *log.Logger) ([]Result, error) {
	if logger == nil {
		logger = log.Default()
	}
	if res := Validate(j); len(res.Errors) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalid, res.Errors[0].Error())
	}

	projector := j.Projector()
	results := make([]Result, 0, len(j.runs))
	for _, r := range j.runs {
		p := j.paths[r.Path]
		seq, err := j.Sequence(r)
		if err != nil {
			return nil, err
		}
		placer := &placement.Placer{
			Projector: projector,
			Spacing:   r.Spacing,
			Options:   r.Options,
			Logger:    logger.With("run", r.Name),
		}
		out := placer.Place(p, seq)
		logger.Info("run complete", "run", r.Name, "path", r.Path, "items", len(seq), "placed", len(out))
		results = append(results, Result{
			Run:        r.Name,
			Path:       r.Path,
			Length:     p.Polyline().Total,
			Placements: out,
		})
	}
	return results, nil
}

package job

import (
	"fmt"

	"github.com/chazu/brushline/pkg/catalog"
	"github.com/chazu/brushline/pkg/distribute"
	"github.com/chazu/brushline/pkg/placement"
)

// ValidationSeverity indicates whether a validation finding blocks
// execution or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks execution
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Subject  string             // "path fence", "item post", "run rails"; empty if job-level
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.Subject == "" {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Subject, e.Message)
}

// ValidationResult bundles errors (blocking) and warnings (advisory).
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// OK reports whether there are no blocking errors.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Validate runs every check over the job. It is read-only.
func Validate(j *Job) ValidationResult {
	var all []ValidationError
	all = append(all, validatePaths(j)...)
	all = append(all, validateItems(j)...)
	all = append(all, validateRuns(j)...)

	var res ValidationResult
	for _, f := range all {
		if f.Severity == SeverityWarning {
			res.Warnings = append(res.Warnings, f)
		} else {
			res.Errors = append(res.Errors, f)
		}
	}
	return res
}

func errorf(subject, format string, args ...any) ValidationError {
	return ValidationError{Subject: subject, Message: fmt.Sprintf(format, args...), Severity: SeverityError}
}

func warnf(subject, format string, args ...any) ValidationError {
	return ValidationError{Subject: subject, Message: fmt.Sprintf(format, args...), Severity: SeverityWarning}
}

// validatePaths checks every path has enough points and a usable length.
func validatePaths(j *Job) []ValidationError {
	var errs []ValidationError
	for _, name := range j.pathOrder {
		p := j.paths[name]
		subject := "path " + name
		if p.Len() < 2 {
			errs = append(errs, errorf(subject, "has %d points, need at least 2", p.Len()))
			continue
		}
		if p.Stale() {
			errs = append(errs, warnf(subject, "sample cache is stale; it will be resampled"))
		}
		if p.Polyline().Total <= 0 && !p.Stale() {
			errs = append(errs, warnf(subject, "has zero length"))
		}
	}
	return errs
}

// validateItems checks sizes and weights of catalog entries.
func validateItems(j *Job) []ValidationError {
	var errs []ValidationError
	for _, it := range j.Catalog.Items() {
		subject := "item " + it.Name
		if it.Size.X < 0 || it.Size.Y < 0 || it.Size.Z < 0 {
			errs = append(errs, errorf(subject, "size %v has a negative component", it.Size))
		}
		if !it.Size.IsFinite() || !it.PivotOffset.IsFinite() {
			errs = append(errs, errorf(subject, "size or pivot is not finite"))
		}
		if it.Weight < 0 {
			errs = append(errs, warnf(subject, "negative weight %v is never drawn", it.Weight))
		}
	}
	return errs
}

// validateRuns checks run references and policies.
func validateRuns(j *Job) []ValidationError {
	var errs []ValidationError
	for _, r := range j.runs {
		subject := "run " + r.Name
		if _, ok := j.paths[r.Path]; !ok {
			errs = append(errs, errorf(subject, "path %q does not exist", r.Path))
		}

		items := j.Catalog.Items()
		if len(r.Sequence.Items) > 0 {
			items = items[:0:0]
			for _, name := range r.Sequence.Items {
				it, ok := j.Catalog.Lookup(name)
				if !ok {
					errs = append(errs, errorf(subject, "item %q does not exist", name))
					continue
				}
				items = append(items, it)
			}
		}
		if len(items) == 0 {
			errs = append(errs, errorf(subject, "has no items to place"))
			continue
		}

		if r.Sequence.Mode == catalog.Weighted {
			drawable := false
			for _, it := range items {
				if it.Weight > 0 {
					drawable = true
					break
				}
			}
			if !drawable {
				errs = append(errs, errorf(subject, "weighted sequence has no item with positive weight"))
			}
		}

		switch r.Spacing.Mode {
		case distribute.Constant:
			if r.Spacing.Spacing <= 0 {
				errs = append(errs, warnf(subject, "constant spacing %v stacks every item on the path start", r.Spacing.Spacing))
			}
		case distribute.Bounds:
			for _, fp := range placement.Footprints(items, r.Options) {
				if r.Spacing.Reserved(fp) <= 0 {
					errs = append(errs, warnf(subject, "an item reserves no path length; items will overlap"))
					break
				}
			}
		}

		if r.Options.Mode != placement.Free && j.Scene.Len() == 0 {
			msg := "no surfaces in the scene; items stay at the path"
			if r.Options.Mode == placement.OnSurface {
				msg = "no surfaces in the scene; every item will be skipped"
			}
			errs = append(errs, warnf(subject, "%s", msg))
		}
		if r.Options.Embed && r.Options.Mode == placement.Free {
			errs = append(errs, warnf(subject, "embed has no effect in free mode"))
		}
		if len(r.Options.Filters.TerrainLayers) > 0 {
			errs = append(errs, validateLayerFilter(j, subject, r.Options.Filters.TerrainLayers)...)
		}
	}
	return errs
}

// validateLayerFilter warns about layer indices no terrain in the scene has.
func validateLayerFilter(j *Job, subject string, layers []int) []ValidationError {
	most := 0
	for _, o := range j.Scene.Objects() {
		if m := o.Layers(); m != nil && m.Layers() > most {
			most = m.Layers()
		}
	}
	if most == 0 {
		return []ValidationError{warnf(subject, "terrain layer filter set but the scene has no painted terrain")}
	}
	var errs []ValidationError
	for _, l := range layers {
		if l < 0 || l >= most {
			errs = append(errs, warnf(subject, "terrain layer %d does not exist (terrains have %d layers)", l, most))
		}
	}
	return errs
}

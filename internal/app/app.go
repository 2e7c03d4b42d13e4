// Package app runs a placement script end to end: evaluate, validate, place.
// Every outcome is reported in one JSON-serializable Result so callers do not
// have to distinguish script errors, validation findings and fatal failures.
package app

import (
	"github.com/charmbracelet/log"

	"github.com/chazu/brushline/pkg/engine"
	"github.com/chazu/brushline/pkg/job"
)

// Finding is a JSON-serializable error or warning.
type Finding struct {
	Line    int    `json:"line,omitempty" yaml:"line,omitempty"`
	Subject string `json:"subject,omitempty" yaml:"subject,omitempty"`
	Message string `json:"message" yaml:"message"`
}

func (f Finding) String() string {
	if f.Subject != "" {
		return f.Subject + ": " + f.Message
	}
	return f.Message
}

// Result is the full outcome of one script.
type Result struct {
	Runs     []job.Result `json:"runs" yaml:"runs"`
	Errors   []Finding    `json:"errors" yaml:"errors"`
	Warnings []Finding    `json:"warnings" yaml:"warnings"`
}

// OK reports whether the script placed without errors.
func (r Result) OK() bool {
	return len(r.Errors) == 0
}

// App owns an engine and a logger.
type App struct {
	engine *engine.Engine
	logger *log.Logger
}

// New returns an App evaluating with settings s.
func New(s engine.Settings, logger *log.Logger) *App {
	if logger == nil {
		logger = log.Default()
	}
	return &App{
		engine: engine.NewEngine(engine.WithSettings(s), engine.WithLogger(logger)),
		logger: logger,
	}
}

// Evaluate runs source and returns placements, errors and warnings. The
// slices are never nil so they serialize as [] rather than null.
func (a *App) Evaluate(source string) Result {
	result := Result{
		Runs:     []job.Result{},
		Errors:   []Finding{},
		Warnings: []Finding{},
	}

	j, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		a.logger.Error("evaluation failed", "err", err)
		result.Errors = append(result.Errors, Finding{Message: err.Error()})
		return result
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, Finding{Line: e.Line, Message: e.Message})
		}
		return result
	}

	v := job.Validate(j)
	for _, w := range v.Warnings {
		a.logger.Warn(w.Message, "subject", w.Subject)
		result.Warnings = append(result.Warnings, Finding{Subject: w.Subject, Message: w.Message})
	}
	if !v.OK() {
		for _, e := range v.Errors {
			result.Errors = append(result.Errors, Finding{Subject: e.Subject, Message: e.Message})
		}
		return result
	}

	runs, err := j.Place(a.logger)
	if err != nil {
		result.Errors = append(result.Errors, Finding{Message: err.Error()})
		return result
	}
	result.Runs = runs
	return result
}

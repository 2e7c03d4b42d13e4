// Package engine evaluates brushline placement scripts. It wraps zygomys in
// a sandboxed environment and produces a job.Job from user source code.
package engine

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/brushline/pkg/distribute"
	"github.com/chazu/brushline/pkg/job"
	"github.com/chazu/brushline/pkg/kernel"
	"github.com/chazu/brushline/pkg/kernel/sdfx"
	"github.com/chazu/brushline/pkg/path"
	"github.com/chazu/brushline/pkg/placement"
	"github.com/chazu/brushline/pkg/surface"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Settings are the values a script starts from. Every statement that does
// not set a value explicitly inherits it from here.
type Settings struct {
	Resolution      int // samples per curve span
	Spacing         distribute.SpacingPolicy
	Placement       placement.Options
	MaxDistance     float64 // surface probe range
	LayerResolution int     // texels per side of terrain layer maps
}

// DefaultSettings returns the built-in settings.
func DefaultSettings() Settings {
	return Settings{
		Resolution:      path.DefaultResolution,
		Spacing:         distribute.SpacingPolicy{Mode: distribute.Bounds},
		Placement:       placement.DefaultOptions(),
		MaxDistance:     surface.DefaultMaxDistance,
		LayerResolution: 64,
	}
}

// Engine wraps the zygomys interpreter for script evaluation.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment and job for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64

	settings  Settings
	newKernel func() kernel.Kernel
	logger    *log.Logger
	timeout   time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithSettings replaces the default settings.
func WithSettings(s Settings) Option {
	return func(e *Engine) { e.settings = s }
}

// WithKernel sets the kernel constructor used for each evaluation.
func WithKernel(f func() kernel.Kernel) Option {
	return func(e *Engine) { e.newKernel = f }
}

// WithLogger sets the logger; the default is log.Default().
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithTimeout bounds each evaluation. Non-positive values keep DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewEngine creates a new Engine instance backed by the sdfx kernel.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		settings:  DefaultSettings(),
		newKernel: func() kernel.Kernel { return sdfx.New() },
		logger:    log.Default(),
		timeout:   DefaultTimeout,
	}
	for _, o := range opts {
		o(e)
	}
	if e.settings.LayerResolution <= 0 {
		e.settings.LayerResolution = DefaultSettings().LayerResolution
	}
	return e
}

// Evaluate takes Lisp source code and produces a new Job.
// Each call creates a fresh zygomys sandbox for deterministic evaluation.
//
// Return semantics:
//   - On success: returns job + nil errors + nil error
//   - On parse/eval failure: returns nil job + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*job.Job, []EvalError, error) {
	gen := e.begin()
	ch := spawn(func() evalResult {
		j, evalErrs, err := e.evaluate(source)
		return evalResult{job: j, errors: evalErrs, err: err}
	})
	return e.await(gen, ch)
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*job.Job, []EvalError, error) {
	j := job.New(e.newKernel())
	j.MaxDistance = e.settings.MaxDistance

	// Empty source is a valid program that produces an empty job.
	if strings.TrimSpace(source) == "" {
		return j, nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerBuiltins(env, j, e.settings)

	err := env.LoadString(preprocessSource(source))
	if err != nil {
		return nil, parseZygomysError(err), nil
	}
	_, err = env.Run()
	if err != nil {
		return nil, parseZygomysError(err), nil
	}

	e.logger.Debug("script evaluated",
		"paths", len(j.PathNames()),
		"items", j.Catalog.Len(),
		"surfaces", j.Scene.Len(),
		"runs", len(j.Runs()))
	return j, nil, nil
}

func cloneFilters(f surface.Filters) surface.Filters {
	f.Tags = slices.Clone(f.Tags)
	f.Exclude = slices.Clone(f.Exclude)
	f.TerrainLayers = slices.Clone(f.TerrainLayers)
	return f
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// shadowPattern matches the sandbox refusing a def over one of its built-ins.
var shadowPattern = regexp.MustCompile(`already have built-in function '([^']+)', refusing to overwrite`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()
	e := EvalError{Message: strings.TrimSpace(msg)}

	// zygomys formats parse errors as "Error on line N: <details>\n"
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			e.Line, _ = strconv.Atoi(m[1])
			e.Message = strings.TrimSpace(m[2])
			break
		}
	}
	if m := shadowPattern.FindStringSubmatch(msg); m != nil {
		e.Message = fmt.Sprintf("cannot def %q: it is a built-in function, choose another name", m[1])
	}
	return []EvalError{e}
}

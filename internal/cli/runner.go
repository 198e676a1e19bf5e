// Package cli coordinates the weaver command: loading rules files, loading
// Go packages and printing the resulting instrumentation plan.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/toyz/weaver/internal/diagnostics"
	werrors "github.com/toyz/weaver/internal/errors"
	"github.com/toyz/weaver/internal/gomod"
	"github.com/toyz/weaver/internal/introspect"
	"github.com/toyz/weaver/internal/plan"
	"github.com/toyz/weaver/internal/rules"
	"github.com/toyz/weaver/pkg/weaver"
)

// Options holds one invocation's settings
type Options struct {
	RulesFiles []string
	Patterns   []string
	Dir        string
	Module     string // overrides the go.mod module path
	Tests      bool
	Check      bool // validate rules files only
	JSON       bool
}

// Summary counts what a run produced
type Summary struct {
	Modules        int
	Descriptions   int
	TypesSelected  int
	AdvisedMethods int
}

// PackageLoader loads the types to plan against
type PackageLoader func(ctx context.Context, opts introspect.Options, patterns ...string) (*introspect.Program, error)

// Runner executes weaver invocations
type Runner struct {
	diag   *diagnostics.System
	logger *slog.Logger
	refs   *rules.References
	load   PackageLoader
}

// NewRunner creates a runner printing through diag
func NewRunner(diag *diagnostics.System, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		diag:   diag,
		logger: logger,
		refs:   rules.DefaultReferences(),
		load:   introspect.Load,
	}
}

// SetPackageLoader replaces the go/packages loader
func (r *Runner) SetPackageLoader(load PackageLoader) { r.load = load }

// References exposes the advisor and mixin references rules resolve against
func (r *Runner) References() *rules.References { return r.refs }

// Run loads the rules files and, unless only checking, plans them against
// the packages matching the patterns
func (r *Runner) Run(ctx context.Context, opts Options) (*Summary, error) {
	if len(opts.RulesFiles) == 0 {
		return nil, werrors.New(werrors.InvalidArgumentCode, "no rules files given").
			WithSuggestion("pass -rules <file> or set rules.files in the config file")
	}

	modulePath := r.resolveModule(opts)
	loader := rules.NewLoader(
		rules.WithReferences(r.refs),
		rules.WithModulePath(modulePath),
		rules.WithLogger(r.logger),
	)

	summary := &Summary{}
	modules := make([]*weaver.Instrumentation, 0, len(opts.RulesFiles))
	errs := werrors.NewMultipleErrors()
	for _, path := range opts.RulesFiles {
		inst, err := loader.LoadFile(path)
		if err != nil {
			werrors.Collect(errs, err)
			continue
		}
		r.diag.Verbose("loaded %s: module %q with %d descriptions", path, inst.Name(), inst.Len())
		modules = append(modules, inst)
		summary.Modules++
		summary.Descriptions += inst.Len()
	}
	if err := errs.ErrOrNil(); err != nil {
		return nil, err
	}

	if opts.Check {
		if !opts.JSON {
			r.diag.Success("%d rules files valid (%d descriptions)", summary.Modules, summary.Descriptions)
		}
		return summary, nil
	}

	prog, err := r.load(ctx, introspect.Options{Dir: opts.Dir, Tests: opts.Tests, Logger: r.logger}, opts.Patterns...)
	if err != nil {
		return nil, err
	}
	candidates := make([]plan.Type, 0, len(prog.Types()))
	for _, t := range prog.Types() {
		candidates = append(candidates, t)
	}
	r.diag.Verbose("loaded %d named types", len(candidates))

	planner := plan.NewPlanner(r.logger)
	plans := make([]*plan.Plan, 0, len(modules))
	for _, inst := range modules {
		p := planner.Plan(inst, candidates)
		plans = append(plans, p)
		summary.TypesSelected += len(p.Types)
		summary.AdvisedMethods += p.AdvisedMethods()
	}

	if opts.JSON {
		return summary, r.writeJSON(plans)
	}
	r.printPlans(plans)
	r.diag.Success("%d types selected, %d methods advised", summary.TypesSelected, summary.AdvisedMethods)
	return summary, nil
}

func (r *Runner) resolveModule(opts Options) string {
	if opts.Module != "" {
		return opts.Module
	}
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	path, err := gomod.ModulePath(dir)
	if err != nil {
		r.diag.Verbose("no module path: %v", err)
		return ""
	}
	r.diag.Verbose("module path %s", path)
	return path
}

func (r *Runner) writeJSON(plans []*plan.Plan) error {
	enc := json.NewEncoder(r.diag.Out())
	enc.SetIndent("", "  ")
	if err := enc.Encode(plans); err != nil {
		return fmt.Errorf("encoding plan: %w", err)
	}
	return nil
}

func (r *Runner) printPlans(plans []*plan.Plan) {
	for _, p := range plans {
		r.diag.Header("%s", p.Module)
		r.diag.Indent()
		if len(p.Types) == 0 {
			r.diag.Line("no types selected")
		}
		for _, t := range p.Types {
			r.diag.Line("%s", t.Type)
			r.diag.Indent()
			for _, sel := range t.Selectors {
				r.diag.Verbose("selected by %s", sel)
			}
			for _, m := range t.Methods {
				for _, advisor := range m.Advisors {
					r.diag.Line("%s -> %s", m.Method, advisor)
				}
			}
			for _, mixin := range t.Mixins {
				r.diag.Line("mixin %s", mixin)
			}
			r.diag.Unindent()
		}
		r.diag.Unindent()
		for _, unused := range p.Unused {
			r.diag.Warn("%s: %s selected no type", p.Module, unused)
		}
	}
}

// Package plan computes which advisors and mixins an instrumentation module
// would apply to a set of types, without applying anything.
package plan

import (
	"log/slog"
	"slices"

	"github.com/toyz/weaver/pkg/weaver"
)

// Type is a named type the planner can select and inspect
type Type interface {
	weaver.TypeCandidate
	Methods() []weaver.Method
}

// MethodPlan lists the advisors that would run around one method
type MethodPlan struct {
	Method   string   `json:"method"`
	Advisors []string `json:"advisors"`
}

// TypePlan is everything planned for one selected type
type TypePlan struct {
	Type      string       `json:"type"`
	Selectors []string     `json:"selectors"`
	Methods   []MethodPlan `json:"methods,omitempty"`
	Mixins    []string     `json:"mixins,omitempty"`
}

// Plan is the dry-run result for one instrumentation module
type Plan struct {
	Module string     `json:"module"`
	Types  []TypePlan `json:"types"`
	// Unused holds the selectors of descriptions that selected no type
	Unused []string `json:"unused,omitempty"`
}

// AdvisedMethods counts methods with at least one advisor
func (p *Plan) AdvisedMethods() int {
	n := 0
	for _, t := range p.Types {
		n += len(t.Methods)
	}
	return n
}

// Planner matches descriptions against types
type Planner struct {
	logger *slog.Logger
}

// NewPlanner creates a planner; a nil logger uses slog.Default
func NewPlanner(logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{logger: logger}
}

// Plan evaluates every description of inst against candidates. Types keep
// the order of candidates; advisors for a method keep description order and
// then binding order.
func (p *Planner) Plan(inst *weaver.Instrumentation, candidates []Type) *Plan {
	descs := inst.Descriptions()
	result := &Plan{Module: inst.Name(), Types: []TypePlan{}}
	used := make([]bool, len(descs))

	for _, candidate := range candidates {
		tp, selected := p.planType(candidate, descs, used)
		if selected {
			result.Types = append(result.Types, tp)
		}
	}

	for i, d := range descs {
		if !used[i] {
			p.logger.Debug("description selected no type",
				slog.String("module", inst.Name()),
				slog.String("selector", d.Selector().String()))
			result.Unused = append(result.Unused, d.Selector().String())
		}
	}
	return result
}

func (p *Planner) planType(candidate Type, descs []*weaver.InstrumentationDescription, used []bool) (TypePlan, bool) {
	tp := TypePlan{Type: candidate.QualifiedName()}
	var selected []*weaver.InstrumentationDescription

	for i, d := range descs {
		if !d.Selector().Selects(candidate) {
			continue
		}
		used[i] = true
		selected = append(selected, d)
		tp.Selectors = append(tp.Selectors, d.Selector().String())
		p.logger.Debug("type selected",
			slog.String("type", tp.Type),
			slog.String("selector", d.Selector().String()))

		for _, mixin := range d.Mixins() {
			if !slices.Contains(tp.Mixins, mixin.Mixin().Name()) {
				tp.Mixins = append(tp.Mixins, mixin.Mixin().Name())
			}
		}
	}
	if len(selected) == 0 {
		return tp, false
	}

	for _, m := range candidate.Methods() {
		var advisors []string
		for _, d := range selected {
			for _, advisor := range d.AdvisorsFor(m) {
				advisors = append(advisors, advisor.Name())
			}
		}
		if len(advisors) == 0 {
			continue
		}
		p.logger.Debug("method advised",
			slog.String("type", tp.Type),
			slog.String("method", m.String()),
			slog.Any("advisors", advisors))
		tp.Methods = append(tp.Methods, MethodPlan{Method: m.String(), Advisors: advisors})
	}
	return tp, true
}

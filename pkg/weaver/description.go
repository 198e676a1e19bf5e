package weaver

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	werrors "github.com/toyz/weaver/internal/errors"
)

// BehaviorBinding pairs a method predicate with the advisor to run around
// matching methods
type BehaviorBinding struct {
	predicate MethodPredicate
	advisor   TypeRef
}

// Predicate returns the binding's method predicate
func (b BehaviorBinding) Predicate() MethodPredicate { return b.predicate }

// Advisor returns the advisor type reference
func (b BehaviorBinding) Advisor() TypeRef { return b.advisor }

// String implements fmt.Stringer
func (b BehaviorBinding) String() string {
	return fmt.Sprintf("%s -> %s", b.predicate, b.advisor)
}

// MixinAttachment adds an interface and its implementation to selected types
type MixinAttachment struct {
	mixin TypeRef
}

// Mixin returns the mixin implementation type reference
func (m MixinAttachment) Mixin() TypeRef { return m.mixin }

// String implements fmt.Stringer
func (m MixinAttachment) String() string { return "mixin " + m.mixin.Name() }

// InstrumentationDescription is the finished, immutable result of a
// declaration: a type selector with its ordered bindings and mixin set.
// It is safe for concurrent read access.
type InstrumentationDescription struct {
	id       uuid.UUID
	selector TypeSelector
	bindings []BehaviorBinding
	mixins   []MixinAttachment
}

// ID identifies the description within reports
func (d *InstrumentationDescription) ID() uuid.UUID { return d.id }

// Selector returns the type selector
func (d *InstrumentationDescription) Selector() TypeSelector { return d.selector }

// Bindings returns a copy of the bindings in declaration order
func (d *InstrumentationDescription) Bindings() []BehaviorBinding {
	return slices.Clone(d.bindings)
}

// Mixins returns a copy of the mixin attachments
func (d *InstrumentationDescription) Mixins() []MixinAttachment {
	return slices.Clone(d.mixins)
}

// AdvisorsFor returns the advisors bound to m, in binding order
func (d *InstrumentationDescription) AdvisorsFor(m MethodDescription) []TypeRef {
	var advisors []TypeRef
	for _, b := range d.bindings {
		if b.predicate.Matches(m) {
			advisors = append(advisors, b.advisor)
		}
	}
	return advisors
}

// String renders the description on multiple lines
func (d *InstrumentationDescription) String() string {
	var sb strings.Builder
	sb.WriteString(d.selector.String())
	for _, b := range d.bindings {
		sb.WriteString("\n  advise ")
		sb.WriteString(b.String())
	}
	for _, m := range d.mixins {
		sb.WriteString("\n  ")
		sb.WriteString(m.String())
	}
	return sb.String()
}

type builderState int

const (
	stateUnconfigured builderState = iota
	stateConfiguring
	stateFinalized
)

func (s builderState) String() string {
	switch s {
	case stateConfiguring:
		return "configuring"
	case stateFinalized:
		return "finalized"
	default:
		return "unconfigured"
	}
}

// Builder accumulates bindings and mixins for one type selector.
//
// Configuration methods return the same builder for chaining. The first
// error is recorded and turns every later call into a no-op; Build reports
// it. The zero Builder has no selector and rejects all configuration.
type Builder struct {
	state    builderState
	selector TypeSelector
	bindings []BehaviorBinding
	mixins   []MixinAttachment
	result   *InstrumentationDescription
	err      error
}

// NewBuilder creates a builder scoped to selector
func NewBuilder(selector TypeSelector) *Builder {
	b := &Builder{}
	if selector.IsZero() {
		b.err = werrors.InvalidArgument("builder requires a type selector")
		return b
	}
	b.selector = selector
	b.state = stateConfiguring
	return b
}

// Selector returns the selector the builder is scoped to
func (b *Builder) Selector() TypeSelector { return b.selector }

// Finalized reports whether Build has completed
func (b *Builder) Finalized() bool { return b.state == stateFinalized }

// Err returns the first error recorded by the builder
func (b *Builder) Err() error { return b.err }

// WithAdvisorFor binds advisor to methods matching predicate
func (b *Builder) WithAdvisorFor(predicate MethodPredicate, advisor TypeRef) *Builder {
	if !b.mutable("add advisor binding") {
		return b
	}
	if predicate.IsZero() {
		return b.fail(werrors.InvalidArgument("advisor %q bound to a nil method predicate", advisor.Name()))
	}
	if advisor.IsZero() {
		return b.fail(werrors.InvalidArgument("advisor binding for %s has no advisor type", predicate))
	}
	b.bindings = append(b.bindings, BehaviorBinding{predicate: predicate, advisor: advisor})
	return b
}

// WithMixin attaches a mixin. Attaching the same mixin twice has no effect.
func (b *Builder) WithMixin(mixin TypeRef) *Builder {
	if !b.mutable("add mixin") {
		return b
	}
	if mixin.IsZero() {
		return b.fail(werrors.InvalidArgument("mixin attachment has no mixin type"))
	}
	for _, m := range b.mixins {
		if m.mixin == mixin {
			return b
		}
	}
	b.mixins = append(b.mixins, MixinAttachment{mixin: mixin})
	return b
}

// Build finalizes the builder into an immutable description
func (b *Builder) Build() (*InstrumentationDescription, error) {
	if b.err != nil {
		return nil, b.err
	}
	if !b.mutable("build") {
		return nil, b.err
	}

	b.result = &InstrumentationDescription{
		id:       uuid.New(),
		selector: b.selector,
		bindings: slices.Clone(b.bindings),
		mixins:   slices.Clone(b.mixins),
	}
	b.state = stateFinalized
	return b.result, nil
}

// mutable checks the state machine and records an InvalidState error on
// misuse
func (b *Builder) mutable(op string) bool {
	if b.err != nil {
		return false
	}
	switch b.state {
	case stateConfiguring:
		return true
	case stateFinalized:
		b.fail(werrors.InvalidState("cannot %s: description for %s is already finalized", op, b.selector).
			WithContext("description", b.result.id.String()))
	default:
		b.fail(werrors.InvalidState("cannot %s: builder has no type selector", op))
	}
	return false
}

func (b *Builder) fail(err *werrors.BaseError) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// WithMixin attaches the mixin implemented by T
func WithMixin[T any](b *Builder) *Builder {
	return b.WithMixin(TypeOf[T]())
}

// WithAdvisorFor binds the advisor implemented by T to methods matching predicate
func WithAdvisorFor[T any](b *Builder, predicate MethodPredicate) *Builder {
	return b.WithAdvisorFor(predicate, TypeOf[T]())
}

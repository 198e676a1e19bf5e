package rules

import (
	"fmt"
	"strings"

	werrors "github.com/toyz/weaver/internal/errors"
	"github.com/toyz/weaver/internal/registry"
	"github.com/toyz/weaver/pkg/weaver"
	"github.com/toyz/weaver/pkg/weaver/advice"
)

// ReferenceKind distinguishes advisor references from mixin references
type ReferenceKind int

const (
	AdvisorReference ReferenceKind = iota
	MixinReference
)

func (k ReferenceKind) String() string {
	if k == MixinReference {
		return "mixin"
	}
	return "advisor"
}

// Reference is a short name rules files use in place of a type name
type Reference struct {
	Name        string
	Kind        ReferenceKind
	Type        weaver.TypeRef
	Description string
}

// References maps short advisor and mixin names to type references
type References struct {
	advisors *registry.BaseRegistry[string, Reference]
	mixins   *registry.BaseRegistry[string, Reference]
}

// NewReferences creates an empty reference registry
func NewReferences() *References {
	return &References{
		advisors: newReferenceRegistry("advisor"),
		mixins:   newReferenceRegistry("mixin"),
	}
}

func newReferenceRegistry(kind string) *registry.BaseRegistry[string, Reference] {
	r := registry.NewBaseRegistry[string, Reference](kind, kind+" name")
	r.SetValidator(registry.ChainValidators(
		registry.NotEmptyKeyValidator[Reference](kind+" name"),
		registry.NoDuplicateValidator[string, Reference](kind+" name"),
		func(key string, ref Reference, _ map[string]Reference) error {
			if ref.Type.IsZero() {
				return fmt.Errorf("%s %q has no type", kind, key)
			}
			return nil
		},
	))
	return r
}

// DefaultReferences returns a registry holding the built-in advisors and mixins
func DefaultReferences() *References {
	refs := NewReferences()
	must(refs.RegisterAdvisor("tracing", weaver.TypeOf[advice.TracingAdvisor](), "OpenTelemetry span per call"))
	must(refs.RegisterAdvisor("metrics", weaver.TypeOf[advice.MetricsAdvisor](), "call count and duration metrics"))
	must(refs.RegisterMixin("context-carrier", weaver.TypeOf[advice.ContextCarrier](), "carries a context.Context across calls"))
	return refs
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// RegisterAdvisor adds a named advisor reference
func (r *References) RegisterAdvisor(name string, t weaver.TypeRef, description string) error {
	return register(r.advisors, Reference{Name: strings.TrimSpace(name), Kind: AdvisorReference, Type: t, Description: description})
}

// RegisterMixin adds a named mixin reference
func (r *References) RegisterMixin(name string, t weaver.TypeRef, description string) error {
	return register(r.mixins, Reference{Name: strings.TrimSpace(name), Kind: MixinReference, Type: t, Description: description})
}

func register(reg *registry.BaseRegistry[string, Reference], ref Reference) error {
	if err := reg.Register(ref.Name, ref); err != nil {
		return werrors.Wrap(werrors.InvalidArgumentCode, "cannot register reference", err)
	}
	return nil
}

// ResolveAdvisor returns the type an advisor name refers to
func (r *References) ResolveAdvisor(name string) (weaver.TypeRef, error) {
	return resolve(r.advisors, AdvisorReference, name)
}

// ResolveMixin returns the type a mixin name refers to
func (r *References) ResolveMixin(name string) (weaver.TypeRef, error) {
	return resolve(r.mixins, MixinReference, name)
}

// Advisors lists the registered advisor references in registration order
func (r *References) Advisors() []Reference { return r.advisors.Values() }

// Mixins lists the registered mixin references in registration order
func (r *References) Mixins() []Reference { return r.mixins.Values() }

// resolve looks name up in reg; unregistered names that look like qualified
// type names are taken literally.
func resolve(reg *registry.BaseRegistry[string, Reference], kind ReferenceKind, name string) (weaver.TypeRef, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return weaver.TypeRef{}, werrors.Newf(werrors.InvalidArgumentCode, "%s name cannot be blank", kind)
	}
	if ref, ok := reg.Get(name); ok {
		return ref.Type, nil
	}
	if strings.ContainsAny(name, "./") {
		return weaver.TypeNamed(name), nil
	}
	return weaver.TypeRef{}, werrors.Newf(werrors.ResolutionErrorCode, "unknown %s %q", kind, name).
		WithSuggestion(fmt.Sprintf("use one of [%s] or a qualified type name such as example.com/pkg.Type",
			strings.Join(reg.List(), ", ")))
}

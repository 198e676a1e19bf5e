package weaver

import (
	"strings"

	"github.com/google/uuid"
	werrors "github.com/toyz/weaver/internal/errors"
	"github.com/toyz/weaver/internal/registry"
)

// SubtypeConfig configures the builder for a subtype selector and returns
// the builder it was given
type SubtypeConfig func(*Builder) *Builder

// TargetConfig configures the builder for an exact type selector and must
// return the description produced by finalizing that builder
type TargetConfig func(*Builder) (*InstrumentationDescription, error)

// Instrumentation collects the descriptions of one declaration module.
//
// It is a facade over the host description registry: callers only reach it
// through the selector operations below, each of which registers finished
// descriptions or nothing at all. An Instrumentation is meant to be
// configured from a single goroutine.
type Instrumentation struct {
	name  string
	descs *registry.BaseRegistry[uuid.UUID, *InstrumentationDescription]
}

// New creates an empty instrumentation module
func New(name string) *Instrumentation {
	descs := registry.NewBaseRegistry[uuid.UUID, *InstrumentationDescription]("description", "description id")
	descs.SetValidator(registry.ChainValidators(
		registry.NotNilValueValidator[uuid.UUID, InstrumentationDescription]("description"),
		registry.NoDuplicateValidator[uuid.UUID, *InstrumentationDescription]("description id"),
	))
	return &Instrumentation{name: name, descs: descs}
}

// Define builds an instrumentation module by running init against it.
// If init fails no instrumentation is returned.
func Define(name string, init func(*Instrumentation) error) (*Instrumentation, error) {
	if strings.TrimSpace(name) == "" {
		return nil, werrors.InvalidArgument("instrumentation name cannot be blank")
	}
	if init == nil {
		return nil, werrors.InvalidArgument("instrumentation %q has no configuration function", name)
	}

	inst := New(name)
	if err := init(inst); err != nil {
		return nil, err
	}
	return inst, nil
}

// Name returns the module name
func (i *Instrumentation) Name() string { return i.name }

// Descriptions returns the registered descriptions in declaration order
func (i *Instrumentation) Descriptions() []*InstrumentationDescription {
	return i.descs.Values()
}

// Len returns the number of registered descriptions
func (i *Instrumentation) Len() int { return i.descs.Size() }

// ForSubtypeOf declares instrumentation for every subtype of typeName
func (i *Instrumentation) ForSubtypeOf(typeName string, configure SubtypeConfig) error {
	return i.ForSubtypesOf([]string{typeName}, configure)
}

// ForSubtypesOf applies configure independently to each name, producing one
// description per name. Either all descriptions are registered or none.
func (i *Instrumentation) ForSubtypesOf(typeNames []string, configure SubtypeConfig) error {
	if configure == nil {
		return werrors.InvalidArgument("forSubtypeOf requires a configuration function")
	}
	return i.registerEach("forSubtypeOf", typeNames, SubtypeSelector, func(b *Builder) (*InstrumentationDescription, error) {
		returned := configure(b)
		if returned == nil {
			return nil, werrors.InvalidArgument("configuration for %s returned no builder", b.Selector())
		}
		if returned != b {
			return nil, werrors.InvalidArgument("configuration for %s returned a different builder", b.Selector()).
				WithSuggestion("return the builder passed to the configuration function")
		}
		return b.Build()
	})
}

// ForTargetType declares instrumentation for exactly the type typeName.
// Exact-type configuration is terminal: configure must finalize the builder
// and return its description.
func (i *Instrumentation) ForTargetType(typeName string, configure TargetConfig) error {
	return i.ForTargetTypes([]string{typeName}, configure)
}

// ForTargetTypes applies configure independently to each name, all or nothing
func (i *Instrumentation) ForTargetTypes(typeNames []string, configure TargetConfig) error {
	if configure == nil {
		return werrors.InvalidArgument("forTargetType requires a configuration function")
	}
	return i.registerEach("forTargetType", typeNames, ExactSelector, func(b *Builder) (*InstrumentationDescription, error) {
		desc, err := configure(b)
		if err != nil {
			return nil, err
		}
		if b.Err() != nil {
			// chaining continued past Build
			return nil, b.Err()
		}
		if desc == nil || !b.Finalized() {
			return nil, werrors.InvalidArgument("configuration for %s did not return a finished description", b.Selector()).
				WithSuggestion("end the configuration with Build()")
		}
		if desc != b.result {
			return nil, werrors.InvalidArgument("configuration for %s returned a description built from another builder", b.Selector())
		}
		return desc, nil
	})
}

func (i *Instrumentation) registerEach(
	op string,
	typeNames []string,
	newSelector func(string) (TypeSelector, error),
	run func(*Builder) (*InstrumentationDescription, error),
) error {
	if len(typeNames) == 0 {
		return werrors.InvalidArgument("%s requires at least one type name", op)
	}

	selectors := make([]TypeSelector, len(typeNames))
	for idx, name := range typeNames {
		sel, err := newSelector(name)
		if err != nil {
			return err
		}
		selectors[idx] = sel
	}

	entries := make([]registry.Entry[uuid.UUID, *InstrumentationDescription], 0, len(selectors))
	for _, sel := range selectors {
		desc, err := run(NewBuilder(sel))
		if err != nil {
			return err
		}
		entries = append(entries, registry.Entry[uuid.UUID, *InstrumentationDescription]{Key: desc.ID(), Value: desc})
	}

	if err := i.descs.RegisterAll(entries); err != nil {
		return werrors.Wrapf(werrors.InvalidStateCode, err, "%s: registering descriptions", op)
	}
	return nil
}

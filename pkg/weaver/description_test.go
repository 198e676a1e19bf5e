package weaver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type traceAdvisor struct{}

type contextMixin struct{}

func mustSubtype(t *testing.T, name string) TypeSelector {
	t.Helper()
	sel, err := SubtypeSelector(name)
	require.NoError(t, err)
	return sel
}

func TestSelectors(t *testing.T) {
	sub, err := SubtypeSelector(" io.Reader ")
	require.NoError(t, err)
	assert.Equal(t, SubtypeOf, sub.Mode())
	assert.Equal(t, "io.Reader", sub.TypeName())
	assert.Equal(t, "subtype-of io.Reader", sub.String())

	exact, err := ExactSelector("main.Server")
	require.NoError(t, err)
	assert.Equal(t, ExactType, exact.Mode())
	assert.Equal(t, "type main.Server", exact.String())

	for _, blank := range []string{"", "   ", "\t"} {
		_, err := SubtypeSelector(blank)
		assert.ErrorIs(t, err, ErrInvalidArgument)
		_, err = ExactSelector(blank)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	}
}

type candidate struct {
	name   string
	supers []string
}

func (c candidate) QualifiedName() string { return c.name }

func (c candidate) IsSubtypeOf(name string) bool {
	if name == c.name {
		return true
	}
	for _, s := range c.supers {
		if s == name {
			return true
		}
	}
	return false
}

func TestSelectorSelects(t *testing.T) {
	file := candidate{name: "os.File", supers: []string{"io.Reader", "io.Writer"}}

	sub := mustSubtype(t, "io.Reader")
	exactFile, _ := ExactSelector("os.File")
	exactReader, _ := ExactSelector("io.Reader")

	assert.True(t, sub.Selects(file))
	assert.True(t, exactFile.Selects(file))
	assert.False(t, exactReader.Selects(file))
	assert.False(t, TypeSelector{}.Selects(file))
}

func TestBuilderAccumulatesInOrder(t *testing.T) {
	b := NewBuilder(mustSubtype(t, "io.Reader"))

	returned := b.
		WithAdvisorFor(Named("Read"), TypeNamed("a.First")).
		WithAdvisorFor(Named("Read"), TypeNamed("a.Second")).
		WithMixin(TypeNamed("a.Mixin")).
		WithMixin(TypeNamed("a.Mixin"))
	require.Same(t, b, returned)

	desc, err := b.Build()
	require.NoError(t, err)
	require.NotNil(t, desc)

	bindings := desc.Bindings()
	require.Len(t, bindings, 2)
	assert.Equal(t, "a.First", bindings[0].Advisor().Name())
	assert.Equal(t, "a.Second", bindings[1].Advisor().Name())
	assert.Len(t, desc.Mixins(), 1, "mixins form a set")
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", desc.ID().String())

	advisors := desc.AdvisorsFor(NewMethod("Read", TypeNamed("[]uint8")))
	assert.Equal(t, []TypeRef{TypeNamed("a.First"), TypeNamed("a.Second")}, advisors)
	assert.Empty(t, desc.AdvisorsFor(NewMethod("Close")))
}

func TestBuilderGenericHelpers(t *testing.T) {
	b := NewBuilder(mustSubtype(t, "io.Reader"))
	WithAdvisorFor[traceAdvisor](b, Any())
	WithMixin[*contextMixin](b)

	desc, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, "github.com/toyz/weaver/pkg/weaver.traceAdvisor", desc.Bindings()[0].Advisor().Name())
	assert.Equal(t, "*github.com/toyz/weaver/pkg/weaver.contextMixin", desc.Mixins()[0].Mixin().Name())
}

func TestBuilderRejectsInvalidArguments(t *testing.T) {
	tests := []struct {
		name  string
		apply func(*Builder) *Builder
	}{
		{"nil predicate", func(b *Builder) *Builder { return b.WithAdvisorFor(MethodPredicate{}, TypeNamed("a.A")) }},
		{"empty advisor", func(b *Builder) *Builder { return b.WithAdvisorFor(Any(), TypeRef{}) }},
		{"empty mixin", func(b *Builder) *Builder { return b.WithMixin(TypeNamed(" ")) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder(mustSubtype(t, "io.Reader"))
			tt.apply(b).WithMixin(TypeNamed("a.Later"))

			assert.ErrorIs(t, b.Err(), ErrInvalidArgument)
			desc, err := b.Build()
			assert.Nil(t, desc, "no partial description")
			assert.ErrorIs(t, err, ErrInvalidArgument)
			assert.False(t, b.Finalized())
		})
	}
}

func TestBuilderWithoutSelector(t *testing.T) {
	b := NewBuilder(TypeSelector{})
	assert.ErrorIs(t, b.Err(), ErrInvalidArgument)

	var zero Builder
	zero.WithMixin(TypeNamed("a.M"))
	assert.ErrorIs(t, zero.Err(), ErrInvalidState)
	_, err := zero.Build()
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestFinalizedDescriptionIsImmutable(t *testing.T) {
	b := NewBuilder(mustSubtype(t, "io.Reader")).
		WithAdvisorFor(Named("Read"), TypeNamed("a.Advisor")).
		WithMixin(TypeNamed("a.Mixin"))

	desc, err := b.Build()
	require.NoError(t, err)
	snapshot := desc.String()
	bindings, mixins := bindingStrings(desc), desc.Mixins()

	b.WithAdvisorFor(Named("Close"), TypeNamed("a.Other"))
	assert.ErrorIs(t, b.Err(), ErrInvalidState)

	b.WithMixin(TypeNamed("a.OtherMixin"))
	_, err = b.Build()
	assert.ErrorIs(t, err, ErrInvalidState)

	assert.Equal(t, snapshot, desc.String())
	assert.Equal(t, bindings, bindingStrings(desc))
	assert.Equal(t, []string{`method("Read") -> a.Advisor`}, bindings)
	assert.Equal(t, mixins, desc.Mixins())
	assert.True(t, b.Finalized())
}

// bindingStrings renders bindings without their predicate funcs, which
// never compare equal
func bindingStrings(d *InstrumentationDescription) []string {
	var out []string
	for _, b := range d.Bindings() {
		out = append(out, b.String())
	}
	return out
}

func TestDescriptionAccessorsReturnCopies(t *testing.T) {
	desc, err := NewBuilder(mustSubtype(t, "io.Reader")).
		WithAdvisorFor(Named("Read"), TypeNamed("a.Advisor")).
		WithMixin(TypeNamed("a.Mixin")).
		Build()
	require.NoError(t, err)

	bindings := desc.Bindings()
	bindings[0] = BehaviorBinding{}
	mixins := desc.Mixins()
	mixins[0] = MixinAttachment{}

	assert.Equal(t, "a.Advisor", desc.Bindings()[0].Advisor().Name())
	assert.Equal(t, "a.Mixin", desc.Mixins()[0].Mixin().Name())
}

func TestDescriptionString(t *testing.T) {
	desc, err := NewBuilder(mustSubtype(t, "io.Reader")).
		WithAdvisorFor(Named("Read").And(TakesArguments(1)), TypeNamed("a.Advisor")).
		WithMixin(TypeNamed("a.Mixin")).
		Build()
	require.NoError(t, err)

	expected := "subtype-of io.Reader\n" +
		`  advise (method("Read") && takesArguments(1)) -> a.Advisor` + "\n" +
		"  mixin a.Mixin"
	assert.Equal(t, expected, desc.String())
}

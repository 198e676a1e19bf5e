package weaver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tracingConfig(b *Builder) *Builder {
	return b.
		WithAdvisorFor(Named("Read").And(TakesArguments(1)), TypeNamed("advice.Tracing")).
		WithMixin(TypeNamed("advice.ContextCarrier"))
}

func TestForSubtypeOf(t *testing.T) {
	inst := New("io")
	require.NoError(t, inst.ForSubtypeOf("io.Reader", tracingConfig))

	descs := inst.Descriptions()
	require.Len(t, descs, 1)
	assert.Equal(t, SubtypeOf, descs[0].Selector().Mode())
	assert.Equal(t, "io.Reader", descs[0].Selector().TypeName())
	assert.Len(t, descs[0].Bindings(), 1)
	assert.Len(t, descs[0].Mixins(), 1)
}

func TestForSubtypesOfProducesIndependentDescriptions(t *testing.T) {
	inst := New("io")
	require.NoError(t, inst.ForSubtypesOf(AnyOf("A", "B").Names(), tracingConfig))

	descs := inst.Descriptions()
	require.Len(t, descs, 2)
	assert.Equal(t, "A", descs[0].Selector().TypeName())
	assert.Equal(t, "B", descs[1].Selector().TypeName())
	assert.NotEqual(t, descs[0].ID(), descs[1].ID())

	for _, d := range descs {
		assert.Equal(t, SubtypeOf, d.Selector().Mode())
		require.Len(t, d.Bindings(), 1)
		assert.Equal(t, `(method("Read") && takesArguments(1))`, d.Bindings()[0].Predicate().String())
		assert.Equal(t, "advice.ContextCarrier", d.Mixins()[0].Mixin().Name())
	}
}

func TestForSubtypesOfIsAllOrNothing(t *testing.T) {
	inst := New("io")

	err := inst.ForSubtypesOf([]string{"A", " ", "C"}, tracingConfig)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, 0, inst.Len())

	calls := 0
	err = inst.ForSubtypesOf([]string{"A", "B"}, func(b *Builder) *Builder {
		calls++
		if calls == 2 {
			return b.WithAdvisorFor(MethodPredicate{}, TypeNamed("x.X"))
		}
		return tracingConfig(b)
	})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, 0, inst.Len(), "the first name must not be registered alone")
}

func TestForSubtypeOfInvalidInput(t *testing.T) {
	inst := New("io")

	assert.ErrorIs(t, inst.ForSubtypeOf("", tracingConfig), ErrInvalidArgument)
	assert.ErrorIs(t, inst.ForSubtypeOf("io.Reader", nil), ErrInvalidArgument)
	assert.ErrorIs(t, inst.ForSubtypesOf(nil, tracingConfig), ErrInvalidArgument)

	err := inst.ForSubtypeOf("io.Reader", func(*Builder) *Builder { return nil })
	assert.ErrorIs(t, err, ErrInvalidArgument)

	err = inst.ForSubtypeOf("io.Reader", func(*Builder) *Builder {
		return NewBuilder(mustSubtype(t, "io.Writer"))
	})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	err = inst.ForSubtypeOf("io.Reader", func(b *Builder) *Builder {
		_, _ = b.Build()
		return b
	})
	assert.ErrorIs(t, err, ErrInvalidState, "subtype configuration must not finalize the builder itself")

	assert.Equal(t, 0, inst.Len())
}

func TestForTargetType(t *testing.T) {
	inst := New("server")
	err := inst.ForTargetType("main.Server", func(b *Builder) (*InstrumentationDescription, error) {
		return tracingConfig(b).Build()
	})
	require.NoError(t, err)

	descs := inst.Descriptions()
	require.Len(t, descs, 1)
	assert.Equal(t, ExactType, descs[0].Selector().Mode())
	assert.Equal(t, "main.Server", descs[0].Selector().TypeName())
}

func TestForTargetTypeRequiresTerminalDescription(t *testing.T) {
	tests := []struct {
		name      string
		configure TargetConfig
		code      ErrorCode
	}{
		{
			name: "builder left configuring",
			configure: func(b *Builder) (*InstrumentationDescription, error) {
				tracingConfig(b)
				return nil, nil
			},
			code: ErrInvalidArgument,
		},
		{
			name: "description from another builder",
			configure: func(b *Builder) (*InstrumentationDescription, error) {
				_, _ = b.Build()
				other, _ := ExactSelector("main.Other")
				return NewBuilder(other).Build()
			},
			code: ErrInvalidArgument,
		},
		{
			name: "chaining past build",
			configure: func(b *Builder) (*InstrumentationDescription, error) {
				desc, err := b.Build()
				b.WithMixin(TypeNamed("late.Mixin"))
				return desc, err
			},
			code: ErrInvalidState,
		},
		{
			name: "invalid binding",
			configure: func(b *Builder) (*InstrumentationDescription, error) {
				return b.WithAdvisorFor(MethodPredicate{}, TypeNamed("x.X")).Build()
			},
			code: ErrInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := New("server")
			err := inst.ForTargetType("main.Server", tt.configure)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.code), "expected %s, got %v", tt.code, err)
			assert.Equal(t, 0, inst.Len())
		})
	}
}

func TestForTargetTypeErrorsPropagate(t *testing.T) {
	sentinel := errors.New("boom")
	inst := New("server")

	err := inst.ForTargetType("main.Server", func(*Builder) (*InstrumentationDescription, error) {
		return nil, sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.ErrorIs(t, inst.ForTargetType("", nil), ErrInvalidArgument)
	assert.ErrorIs(t, inst.ForTargetType(" ", func(b *Builder) (*InstrumentationDescription, error) { return b.Build() }), ErrInvalidArgument)
}

func TestForTargetTypes(t *testing.T) {
	inst := New("server")
	err := inst.ForTargetTypes(AnyOf("main.A").Or("main.B").Names(), func(b *Builder) (*InstrumentationDescription, error) {
		return b.WithAdvisorFor(IsConstructor(), TypeNamed("advice.Metrics")).Build()
	})
	require.NoError(t, err)

	descs := inst.Descriptions()
	require.Len(t, descs, 2)
	assert.Equal(t, "main.A", descs[0].Selector().TypeName())
	assert.Equal(t, "main.B", descs[1].Selector().TypeName())
}

func TestDefine(t *testing.T) {
	inst, err := Define("io", func(i *Instrumentation) error {
		if err := i.ForSubtypeOf("io.Reader", tracingConfig); err != nil {
			return err
		}
		return i.ForTargetType("os.File", func(b *Builder) (*InstrumentationDescription, error) {
			return b.WithMixin(TypeNamed("advice.ContextCarrier")).Build()
		})
	})
	require.NoError(t, err)
	assert.Equal(t, "io", inst.Name())
	require.Equal(t, 2, inst.Len())
	assert.Equal(t, "io.Reader", inst.Descriptions()[0].Selector().TypeName())
	assert.Equal(t, "os.File", inst.Descriptions()[1].Selector().TypeName())

	inst, err = Define("broken", func(i *Instrumentation) error {
		return i.ForSubtypeOf("", tracingConfig)
	})
	assert.Nil(t, inst)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = Define(" ", func(*Instrumentation) error { return nil })
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = Define("nil", nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestIndependentInstrumentationsShareNothing(t *testing.T) {
	a, b := New("a"), New("b")
	require.NoError(t, a.ForSubtypeOf("io.Reader", tracingConfig))

	assert.Equal(t, 1, a.Len())
	assert.Equal(t, 0, b.Len())

	descs := a.Descriptions()
	descs[0] = nil
	assert.NotNil(t, a.Descriptions()[0])
}

func TestNameList(t *testing.T) {
	base := AnyOf("Get", "Put")
	extended := base.Or("Delete")

	assert.Equal(t, []string{"Get", "Put"}, base.Names())
	assert.Equal(t, []string{"Get", "Put", "Delete"}, extended.Names())
	assert.Equal(t, 3, extended.Len())

	p, err := extended.Methods()
	require.NoError(t, err)
	assert.True(t, p.Matches(NewMethod("Delete")))
	assert.False(t, p.Matches(NewMethod("List")))
}

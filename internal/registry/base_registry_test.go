package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type advisorRef struct {
	typeName string
}

func newTestRegistry() *BaseRegistry[string, *advisorRef] {
	r := NewBaseRegistry[string, *advisorRef]("advisor", "advisor name")
	r.SetValidator(ChainValidators(
		NotEmptyKeyValidator[*advisorRef]("advisor name"),
		NotNilValueValidator[string, advisorRef]("advisor"),
		NoDuplicateValidator[string, *advisorRef]("advisor name"),
	))
	return r
}

func TestBaseRegistry_Register(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    *advisorRef
		errorMsg string
	}{
		{name: "valid entry", key: "tracing", value: &advisorRef{"advice.TracingAdvisor"}},
		{name: "empty key", key: "", value: &advisorRef{"x.Y"}, errorMsg: "advisor registry: advisor name cannot be empty"},
		{name: "nil value", key: "metrics", value: nil, errorMsg: "advisor registry: advisor cannot be nil"},
		{name: "duplicate", key: "existing", value: &advisorRef{"x.Y"}, errorMsg: "advisor registry: advisor name 'existing' is already registered"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRegistry()
			require.NoError(t, r.Register("existing", &advisorRef{"x.Existing"}))

			err := r.Register(tt.key, tt.value)
			if tt.errorMsg != "" {
				assert.EqualError(t, err, tt.errorMsg)
				assert.Equal(t, 1, r.Size())
				return
			}
			require.NoError(t, err)
			got, ok := r.Get(tt.key)
			require.True(t, ok)
			assert.Same(t, tt.value, got)
		})
	}
}

func TestBaseRegistry_Order(t *testing.T) {
	r := newTestRegistry()
	for _, name := range []string{"c", "a", "b"} {
		require.NoError(t, r.Register(name, &advisorRef{name}))
	}

	assert.Equal(t, []string{"c", "a", "b"}, r.List())
	values := r.Values()
	require.Len(t, values, 3)
	assert.Equal(t, "c", values[0].typeName)
	assert.Equal(t, "b", values[2].typeName)

	keys := r.List()
	keys[0] = "mutated"
	assert.Equal(t, "c", r.List()[0])
}

func TestBaseRegistry_RegisterAllIsAtomic(t *testing.T) {
	r := newTestRegistry()
	require.NoError(t, r.Register("a", &advisorRef{"a"}))

	err := r.RegisterAll([]Entry[string, *advisorRef]{
		{Key: "b", Value: &advisorRef{"b"}},
		{Key: "c", Value: &advisorRef{"c"}},
		{Key: "b", Value: &advisorRef{"b2"}},
	})
	assert.EqualError(t, err, "advisor registry: advisor name 'b' is already registered")
	assert.Equal(t, []string{"a"}, r.List())

	require.NoError(t, r.RegisterAll([]Entry[string, *advisorRef]{
		{Key: "b", Value: &advisorRef{"b"}},
		{Key: "c", Value: &advisorRef{"c"}},
	}))
	assert.Equal(t, []string{"a", "b", "c"}, r.List())
}

func TestBaseRegistry_Lookup(t *testing.T) {
	r := newTestRegistry()
	require.NoError(t, r.Register("tracing", &advisorRef{"advice.TracingAdvisor"}))

	_, ok := r.Get("metrics")
	assert.False(t, ok)

	v, ok := r.Get("tracing")
	require.True(t, ok)
	assert.Equal(t, "advice.TracingAdvisor", v.typeName)
}

func TestBaseRegistry_ConcurrentAccess(t *testing.T) {
	r := NewBaseRegistry[string, int]("counter", "counter name")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = r.Register(fmt.Sprintf("k%d", i), i)
			_ = r.List()
			_, _ = r.Get("k0")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, r.Size())
	assert.Len(t, r.Values(), 50)
}

package weaver

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// TypeRef identifies a Go type by its fully-qualified name.
//
// Named types are spelled "import/path.Name", predeclared types by their bare
// name, and composite types the way go/types prints them ("*pkg.T", "[]int",
// "map[string]pkg.T").
type TypeRef struct {
	name string
}

// TypeNamed returns a reference to the type with the given qualified name
func TypeNamed(name string) TypeRef {
	return TypeRef{name: strings.TrimSpace(name)}
}

// TypeOf returns a reference to T resolved from compile-time type information
func TypeOf[T any]() TypeRef {
	return TypeRef{name: qualifiedName(reflect.TypeOf((*T)(nil)).Elem())}
}

// Name returns the qualified type name
func (t TypeRef) Name() string {
	return t.name
}

// String implements fmt.Stringer
func (t TypeRef) String() string {
	return t.name
}

// IsZero reports whether the reference names no type
func (t TypeRef) IsZero() bool {
	return t.name == ""
}

// qualifiedName spells a reflect.Type the way go/types.TypeString does with
// full package paths as qualifiers.
func qualifiedName(t reflect.Type) string {
	if t.Name() != "" {
		if t.PkgPath() == "" {
			return t.Name()
		}
		return t.PkgPath() + "." + t.Name()
	}

	switch t.Kind() {
	case reflect.Pointer:
		return "*" + qualifiedName(t.Elem())
	case reflect.Slice:
		return "[]" + qualifiedName(t.Elem())
	case reflect.Array:
		return fmt.Sprintf("[%d]%s", t.Len(), qualifiedName(t.Elem()))
	case reflect.Map:
		return fmt.Sprintf("map[%s]%s", qualifiedName(t.Key()), qualifiedName(t.Elem()))
	case reflect.Chan:
		switch t.ChanDir() {
		case reflect.RecvDir:
			return "<-chan " + qualifiedName(t.Elem())
		case reflect.SendDir:
			return "chan<- " + qualifiedName(t.Elem())
		}
		return "chan " + qualifiedName(t.Elem())
	case reflect.Interface:
		if t.NumMethod() == 0 {
			return "any"
		}
	}
	return t.String()
}

// MethodDescription is the structural view of a method that predicates
// evaluate. Weaving engines supply their own implementation.
type MethodDescription interface {
	Name() string
	ParameterTypes() []TypeRef
	IsConstructor() bool
	IsAbstract() bool
}

// Method is an immutable MethodDescription value
type Method struct {
	name        string
	params      []TypeRef
	constructor bool
	abstract    bool
}

// NewMethod creates a method description with the given parameter types
func NewMethod(name string, params ...TypeRef) Method {
	return Method{
		name:   name,
		params: slices.Clone(params),
	}
}

// AsConstructor returns a copy of the method flagged as a constructor
func (m Method) AsConstructor() Method {
	m.params = slices.Clone(m.params)
	m.constructor = true
	return m
}

// AsAbstract returns a copy of the method flagged as abstract
func (m Method) AsAbstract() Method {
	m.params = slices.Clone(m.params)
	m.abstract = true
	return m
}

func (m Method) Name() string { return m.name }

func (m Method) ParameterTypes() []TypeRef { return slices.Clone(m.params) }

func (m Method) IsConstructor() bool { return m.constructor }

func (m Method) IsAbstract() bool { return m.abstract }

// String renders the method as name(T1, T2)
func (m Method) String() string {
	params := make([]string, len(m.params))
	for i, p := range m.params {
		params[i] = p.Name()
	}
	return fmt.Sprintf("%s(%s)", m.name, strings.Join(params, ", "))
}

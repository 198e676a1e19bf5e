package weaver

import (
	"strconv"
	"strings"

	werrors "github.com/toyz/weaver/internal/errors"
)

// MethodPredicate is an immutable boolean test over a method's structural
// signature. The zero value is not a valid predicate: it matches nothing,
// and any combinator given a zero operand returns the zero value.
type MethodPredicate struct {
	match func(MethodDescription) bool
	repr  string
}

func newPredicate(repr string, match func(MethodDescription) bool) MethodPredicate {
	return MethodPredicate{match: match, repr: repr}
}

// Matches evaluates the predicate against a method
func (p MethodPredicate) Matches(m MethodDescription) bool {
	if p.match == nil || m == nil {
		return false
	}
	return p.match(m)
}

// IsZero reports whether p is the invalid zero predicate
func (p MethodPredicate) IsZero() bool {
	return p.match == nil
}

// String returns the predicate in matcher expression syntax
func (p MethodPredicate) String() string {
	if p.IsZero() {
		return "<nil>"
	}
	return p.repr
}

// And is the method form of the And combinator
func (p MethodPredicate) And(q MethodPredicate) MethodPredicate {
	return And(p, q)
}

// Or is the method form of the Or combinator
func (p MethodPredicate) Or(q MethodPredicate) MethodPredicate {
	return Or(p, q)
}

// IsConstructor matches constructors
func IsConstructor() MethodPredicate {
	return newPredicate("isConstructor()", func(m MethodDescription) bool {
		return m.IsConstructor()
	})
}

// IsAbstract matches methods without an implementation
func IsAbstract() MethodPredicate {
	return newPredicate("isAbstract()", func(m MethodDescription) bool {
		return m.IsAbstract()
	})
}

// Named matches methods whose name equals name exactly
func Named(name string) MethodPredicate {
	return newPredicate("method("+strconv.Quote(name)+")", func(m MethodDescription) bool {
		return m.Name() == name
	})
}

// TakesArguments matches methods with exactly count parameters
func TakesArguments(count int) MethodPredicate {
	return newPredicate("takesArguments("+strconv.Itoa(count)+")", func(m MethodDescription) bool {
		return len(m.ParameterTypes()) == count
	})
}

// TakesArgumentTypes matches methods whose parameter types equal types
// position for position
func TakesArgumentTypes(types ...TypeRef) MethodPredicate {
	want := append([]TypeRef(nil), types...)
	return newPredicate("takesArguments("+quoteTypes(want)+")", func(m MethodDescription) bool {
		got := m.ParameterTypes()
		if len(got) != len(want) {
			return false
		}
		for i := range want {
			if got[i] != want[i] {
				return false
			}
		}
		return true
	})
}

// TakesArgument matches methods whose parameter at index has exactly type t
func TakesArgument(index int, t TypeRef) MethodPredicate {
	repr := "takesArgument(" + strconv.Itoa(index) + ", " + strconv.Quote(t.Name()) + ")"
	return newPredicate(repr, func(m MethodDescription) bool {
		params := m.ParameterTypes()
		return index >= 0 && index < len(params) && params[index] == t
	})
}

// Takes1Argument matches methods taking a single parameter of type T
func Takes1Argument[T any]() MethodPredicate {
	return TakesArgumentTypes(TypeOf[T]())
}

// Takes2Arguments matches methods taking parameters (T, R)
func Takes2Arguments[T, R any]() MethodPredicate {
	return TakesArgumentTypes(TypeOf[T](), TypeOf[R]())
}

// Takes3Arguments matches methods taking parameters (T, R, S)
func Takes3Arguments[T, R, S any]() MethodPredicate {
	return TakesArgumentTypes(TypeOf[T](), TypeOf[R](), TypeOf[S]())
}

// WithArgument matches methods whose parameter at index has type T
func WithArgument[T any](index int) MethodPredicate {
	return TakesArgument(index, TypeOf[T]())
}

// AnyMethod matches methods named any of names. It is the left fold of Or
// over Named, so an empty list has no seed and is rejected.
func AnyMethod(names ...string) (MethodPredicate, error) {
	if len(names) == 0 {
		return MethodPredicate{}, werrors.InvalidArgument("anyMethod requires at least one method name").
			WithSuggestion("use none() for a predicate that never matches")
	}
	for i, name := range names {
		if strings.TrimSpace(name) == "" {
			return MethodPredicate{}, werrors.InvalidArgument("anyMethod: method name %d is blank", i+1)
		}
	}

	p := Named(names[0])
	for _, name := range names[1:] {
		p = Or(p, Named(name))
	}

	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = strconv.Quote(name)
	}
	p.repr = "anyMethod(" + strings.Join(quoted, ", ") + ")"
	return p, nil
}

// And matches when both p and q match
func And(p, q MethodPredicate) MethodPredicate {
	if p.IsZero() || q.IsZero() {
		return MethodPredicate{}
	}
	return newPredicate("("+p.repr+" && "+q.repr+")", func(m MethodDescription) bool {
		return p.match(m) && q.match(m)
	})
}

// Or matches when either p or q matches
func Or(p, q MethodPredicate) MethodPredicate {
	if p.IsZero() || q.IsZero() {
		return MethodPredicate{}
	}
	return newPredicate("("+p.repr+" || "+q.repr+")", func(m MethodDescription) bool {
		return p.match(m) || q.match(m)
	})
}

// Not matches when p does not
func Not(p MethodPredicate) MethodPredicate {
	if p.IsZero() {
		return MethodPredicate{}
	}
	return newPredicate("!"+p.repr, func(m MethodDescription) bool {
		return !p.match(m)
	})
}

// AllOf folds And over predicates
func AllOf(predicates ...MethodPredicate) (MethodPredicate, error) {
	return fold("allOf", And, predicates)
}

// OneOf folds Or over predicates
func OneOf(predicates ...MethodPredicate) (MethodPredicate, error) {
	return fold("oneOf", Or, predicates)
}

// Any matches every method
func Any() MethodPredicate {
	return newPredicate("any()", func(MethodDescription) bool { return true })
}

// None matches no method
func None() MethodPredicate {
	return newPredicate("none()", func(MethodDescription) bool { return false })
}

func fold(op string, combine func(p, q MethodPredicate) MethodPredicate, predicates []MethodPredicate) (MethodPredicate, error) {
	if len(predicates) == 0 {
		return MethodPredicate{}, werrors.InvalidArgument("%s requires at least one predicate", op)
	}
	for i, p := range predicates {
		if p.IsZero() {
			return MethodPredicate{}, werrors.InvalidArgument("%s: predicate %d is nil", op, i)
		}
	}

	result := predicates[0]
	for _, p := range predicates[1:] {
		result = combine(result, p)
	}
	return result, nil
}

func quoteTypes(types []TypeRef) string {
	quoted := make([]string, len(types))
	for i, t := range types {
		quoted[i] = strconv.Quote(t.Name())
	}
	return strings.Join(quoted, ", ")
}

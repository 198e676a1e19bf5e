package weaver

import (
	"fmt"
	"strings"

	werrors "github.com/toyz/weaver/internal/errors"
)

// SelectorMode is how a TypeSelector chooses types
type SelectorMode int

const (
	// SubtypeOf selects the named type and every type that extends or implements it
	SubtypeOf SelectorMode = iota + 1
	// ExactType selects only the named type
	ExactType
)

// String returns the string representation of the mode
func (m SelectorMode) String() string {
	switch m {
	case SubtypeOf:
		return "subtype-of"
	case ExactType:
		return "type"
	default:
		return "unknown"
	}
}

// TypeCandidate is a type a selector can be tested against
type TypeCandidate interface {
	QualifiedName() string
	IsSubtypeOf(name string) bool
}

// TypeSelector identifies the types an InstrumentationDescription applies to
type TypeSelector struct {
	mode SelectorMode
	name string
}

// SubtypeSelector selects any subtype of name
func SubtypeSelector(name string) (TypeSelector, error) {
	return newSelector(SubtypeOf, name)
}

// ExactSelector selects exactly the type named name
func ExactSelector(name string) (TypeSelector, error) {
	return newSelector(ExactType, name)
}

func newSelector(mode SelectorMode, name string) (TypeSelector, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return TypeSelector{}, werrors.InvalidArgument("%s selector requires a non-blank type name", mode).
			WithContext("name", name)
	}
	return TypeSelector{mode: mode, name: trimmed}, nil
}

// Mode returns the selection mode
func (s TypeSelector) Mode() SelectorMode { return s.mode }

// TypeName returns the selected type name
func (s TypeSelector) TypeName() string { return s.name }

// IsZero reports whether the selector was never attached
func (s TypeSelector) IsZero() bool { return s.mode == 0 }

// Selects reports whether the candidate type is chosen by this selector
func (s TypeSelector) Selects(t TypeCandidate) bool {
	switch s.mode {
	case ExactType:
		return t.QualifiedName() == s.name
	case SubtypeOf:
		return t.IsSubtypeOf(s.name)
	default:
		return false
	}
}

// String implements fmt.Stringer
func (s TypeSelector) String() string {
	return fmt.Sprintf("%s %s", s.mode, s.name)
}

package weaver

import "slices"

// NameList is an immutable, ordered list of type or method names
type NameList struct {
	names []string
}

// AnyOf starts a name list
func AnyOf(first string, rest ...string) NameList {
	names := make([]string, 0, len(rest)+1)
	names = append(names, first)
	names = append(names, rest...)
	return NameList{names: names}
}

// Or returns a new list with name appended
func (l NameList) Or(name string) NameList {
	names := make([]string, 0, len(l.names)+1)
	names = append(names, l.names...)
	names = append(names, name)
	return NameList{names: names}
}

// Names returns a copy of the names
func (l NameList) Names() []string {
	return slices.Clone(l.names)
}

// Len returns the number of names
func (l NameList) Len() int {
	return len(l.names)
}

// Methods matches methods named any of the listed names
func (l NameList) Methods() (MethodPredicate, error) {
	return AnyMethod(l.names...)
}

// Package introspect reads Go packages and describes their named types in
// the terms the matcher understands: qualified names, method signatures and
// a subtype relation.
package introspect

import (
	"go/token"
	"go/types"
	"slices"
	"strings"

	"github.com/toyz/weaver/pkg/weaver"
)

// Kind classifies a named type by its underlying type
type Kind int

const (
	KindOther Kind = iota
	KindStruct
	KindInterface
)

func (k Kind) String() string {
	switch k {
	case KindStruct:
		return "struct"
	case KindInterface:
		return "interface"
	default:
		return "type"
	}
}

// TypeInfo describes one named type declared in a loaded package
type TypeInfo struct {
	name    string
	kind    Kind
	obj     *types.TypeName
	pos     token.Position
	methods []weaver.Method
	prog    *Program
}

var _ weaver.TypeCandidate = (*TypeInfo)(nil)

// QualifiedName returns the import path qualified name, e.g. net/http.Handler
func (t *TypeInfo) QualifiedName() string { return t.name }

// Kind returns the type's kind
func (t *TypeInfo) Kind() Kind { return t.kind }

// Position returns where the type is declared
func (t *TypeInfo) Position() token.Position { return t.pos }

// Methods returns the type's constructors followed by its method set.
// Pointer receiver and promoted methods are included.
func (t *TypeInfo) Methods() []weaver.Method { return slices.Clone(t.methods) }

// IsSubtypeOf reports whether the type is name itself, embeds it, or
// implements it (through a pointer receiver if need be). Names that are not
// known to the program never match.
func (t *TypeInfo) IsSubtypeOf(name string) bool {
	name = strings.TrimSpace(name)
	if name == t.name {
		return true
	}
	super, ok := t.prog.index[name]
	if !ok {
		return false
	}
	return isSubtype(t.obj.Type(), super.Type(), map[types.Type]bool{})
}

func isSubtype(t, super types.Type, seen map[types.Type]bool) bool {
	if types.Identical(t, super) {
		return true
	}

	if iface, ok := super.Underlying().(*types.Interface); ok {
		if types.Implements(t, iface) {
			return true
		}
		if !types.IsInterface(t) && types.Implements(types.NewPointer(t), iface) {
			return true
		}
	}

	st, ok := t.Underlying().(*types.Struct)
	if !ok {
		return false
	}
	for i := 0; i < st.NumFields(); i++ {
		field := st.Field(i)
		if !field.Embedded() {
			continue
		}
		ft := field.Type()
		if ptr, ok := ft.(*types.Pointer); ok {
			ft = ptr.Elem()
		}
		if seen[ft] {
			continue
		}
		seen[ft] = true
		if isSubtype(ft, super, seen) {
			return true
		}
	}
	return false
}

func qualifier(p *types.Package) string { return p.Path() }

func typeString(t types.Type) string { return types.TypeString(t, qualifier) }

func qualifiedName(obj types.Object) string {
	if obj.Pkg() == nil {
		return obj.Name()
	}
	return obj.Pkg().Path() + "." + obj.Name()
}

func kindOf(t types.Type) Kind {
	switch t.Underlying().(type) {
	case *types.Struct:
		return KindStruct
	case *types.Interface:
		return KindInterface
	default:
		return KindOther
	}
}

func signatureMethod(name string, sig *types.Signature) weaver.Method {
	params := make([]weaver.TypeRef, sig.Params().Len())
	for i := range params {
		params[i] = weaver.TypeNamed(typeString(sig.Params().At(i).Type()))
	}
	return weaver.NewMethod(name, params...)
}

// methodsOf lists the method set of named, using the pointer method set for
// concrete types. Interface methods are abstract.
func methodsOf(named types.Type) []weaver.Method {
	abstract := types.IsInterface(named)
	recv := named
	if !abstract {
		recv = types.NewPointer(named)
	}

	mset := types.NewMethodSet(recv)
	methods := make([]weaver.Method, 0, mset.Len())
	for i := 0; i < mset.Len(); i++ {
		fn, ok := mset.At(i).Obj().(*types.Func)
		if !ok {
			continue
		}
		m := signatureMethod(fn.Name(), fn.Type().(*types.Signature))
		if abstract {
			m = m.AsAbstract()
		}
		methods = append(methods, m)
	}
	return methods
}

// constructorsOf finds package functions New<Type>, or New, whose first
// result is the type or a pointer to it
func constructorsOf(obj *types.TypeName) []weaver.Method {
	scope := obj.Pkg().Scope()
	var ctors []weaver.Method
	for _, fname := range []string{"New" + obj.Name(), "New"} {
		fn, ok := scope.Lookup(fname).(*types.Func)
		if !ok {
			continue
		}
		sig := fn.Type().(*types.Signature)
		if sig.Results().Len() == 0 {
			continue
		}
		result := sig.Results().At(0).Type()
		if ptr, ok := result.(*types.Pointer); ok {
			result = ptr.Elem()
		}
		if types.Identical(result, obj.Type()) {
			ctors = append(ctors, signatureMethod(fname, sig).AsConstructor())
		}
	}
	return ctors
}

package introspect

import (
	"context"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"log/slog"
	"sort"
	"strings"

	werrors "github.com/toyz/weaver/internal/errors"
	"golang.org/x/tools/go/packages"
)

// Program is the set of named types declared by the loaded packages, plus an
// index of every named type they can see for subtype checks
type Program struct {
	fset  *token.FileSet
	types []*TypeInfo
	byKey map[string]*TypeInfo
	index map[string]*types.TypeName
}

// Types returns the declared types, package by package in declaration order
func (p *Program) Types() []*TypeInfo {
	out := make([]*TypeInfo, len(p.types))
	copy(out, p.types)
	return out
}

// Lookup finds a declared type by qualified name
func (p *Program) Lookup(name string) (*TypeInfo, bool) {
	t, ok := p.byKey[name]
	return t, ok
}

// Options configures Load
type Options struct {
	Dir    string // working directory for package patterns
	Tests  bool   // include test packages
	Logger *slog.Logger
}

// Load loads the packages matching patterns with go/packages
func Load(ctx context.Context, opts Options, patterns ...string) (*Program, error) {
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cfg := &packages.Config{
		Context: ctx,
		Dir:     opts.Dir,
		Fset:    token.NewFileSet(),
		Tests:   opts.Tests,
		Mode:    packages.NeedName | packages.NeedFiles | packages.NeedTypes | packages.NeedImports,
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, werrors.WrapResolutionError("packages "+strings.Join(patterns, " "), err)
	}

	errs := werrors.NewMultipleErrors()
	packages.Visit(pkgs, nil, func(pkg *packages.Package) {
		for _, e := range pkg.Errors {
			errs.Add(werrors.Newf(werrors.ResolutionErrorCode, "%s: %s", pkg.PkgPath, e.Msg).
				WithContext("package", pkg.PkgPath))
		}
	})
	if err := errs.ErrOrNil(); err != nil {
		return nil, err
	}

	prog := newProgram(cfg.Fset)
	for _, pkg := range pkgs {
		prog.indexPackage(pkg.Types, map[*types.Package]bool{})
	}
	for _, pkg := range pkgs {
		prog.addPackage(pkg.Types)
		logger.Debug("loaded package", slog.String("package", pkg.PkgPath), slog.Int("files", len(pkg.GoFiles)))
	}
	return prog, nil
}

// ParseSource type-checks a single file as package pkgPath
func ParseSource(pkgPath, filename, source string) (*Program, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, source, parser.SkipObjectResolution)
	if err != nil {
		return nil, werrors.WrapParseError("source", err).
			WithLocation(werrors.SourceLocation{File: filename})
	}

	conf := types.Config{Importer: importer.ForCompiler(fset, "source", nil)}
	pkg, err := conf.Check(pkgPath, fset, []*ast.File{file}, nil)
	if err != nil {
		return nil, werrors.WrapResolutionError("types in source", err).
			WithLocation(werrors.SourceLocation{File: filename})
	}

	prog := newProgram(fset)
	prog.indexPackage(pkg, map[*types.Package]bool{})
	prog.addPackage(pkg)
	return prog, nil
}

func newProgram(fset *token.FileSet) *Program {
	return &Program{
		fset:  fset,
		byKey: make(map[string]*TypeInfo),
		index: make(map[string]*types.TypeName),
	}
}

func (p *Program) indexPackage(pkg *types.Package, seen map[*types.Package]bool) {
	if pkg == nil || seen[pkg] {
		return
	}
	seen[pkg] = true

	scope := pkg.Scope()
	for _, name := range scope.Names() {
		if tn, ok := scope.Lookup(name).(*types.TypeName); ok && !tn.IsAlias() {
			p.index[qualifiedName(tn)] = tn
		}
	}
	for _, imp := range pkg.Imports() {
		p.indexPackage(imp, seen)
	}
}

func (p *Program) addPackage(pkg *types.Package) {
	if pkg == nil {
		return
	}

	var declared []*types.TypeName
	scope := pkg.Scope()
	for _, name := range scope.Names() {
		if tn, ok := scope.Lookup(name).(*types.TypeName); ok && !tn.IsAlias() {
			declared = append(declared, tn)
		}
	}
	sort.Slice(declared, func(i, j int) bool { return declared[i].Pos() < declared[j].Pos() })

	for _, tn := range declared {
		name := qualifiedName(tn)
		if _, dup := p.byKey[name]; dup {
			continue
		}
		info := &TypeInfo{
			name:    name,
			kind:    kindOf(tn.Type()),
			obj:     tn,
			methods: append(constructorsOf(tn), methodsOf(tn.Type())...),
			prog:    p,
		}
		info.pos = p.fset.Position(tn.Pos())
		p.types = append(p.types, info)
		p.byKey[name] = info
	}
}

// Package rules compiles YAML rules files into instrumentation modules.
//
// A rules file is a declarative front end for the weaver DSL: every entry is
// turned into ForSubtypesOf or ForTargetTypes calls on a module built with
// weaver.Define, so rules files and Go declarations produce identical
// descriptions.
package rules

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	werrors "github.com/toyz/weaver/internal/errors"
	"github.com/toyz/weaver/internal/expr"
	"github.com/toyz/weaver/pkg/weaver"
)

// Loader compiles rules documents
type Loader struct {
	refs       *References
	parser     *expr.Parser
	modulePath string
	logger     *slog.Logger
}

// Option configures a Loader
type Option func(*Loader)

// WithReferences replaces the default advisor and mixin references
func WithReferences(refs *References) Option {
	return func(l *Loader) { l.refs = refs }
}

// WithModulePath sets the module path that ./ type names are relative to
func WithModulePath(path string) Option {
	return func(l *Loader) { l.modulePath = strings.TrimSuffix(path, "/") }
}

// WithLogger sets the logger used for debug output
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// NewLoader creates a loader using the built-in references by default
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		refs:   DefaultReferences(),
		parser: expr.NewParser(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadFile reads and compiles a rules file
func (l *Loader) LoadFile(path string) (*weaver.Instrumentation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, werrors.WrapFileSystemError("read", path, err)
	}
	return l.Load(path, data)
}

// Load parses and compiles rules from data. filename is used for error
// locations and as the default module name.
func (l *Loader) Load(filename string, data []byte) (*weaver.Instrumentation, error) {
	doc, err := ParseDocument(filename, data)
	if err != nil {
		return nil, err
	}
	return l.Compile(filename, doc)
}

type compiledBinding struct {
	predicate weaver.MethodPredicate
	advisor   weaver.TypeRef
}

type compiledEntry struct {
	index    int
	line     int
	subtype  bool
	names    []string
	bindings []compiledBinding
	mixins   []weaver.TypeRef
}

// Compile turns a parsed document into an instrumentation module. All entry
// errors are collected before anything is declared.
func (l *Loader) Compile(filename string, doc *Document) (*weaver.Instrumentation, error) {
	name := strings.TrimSpace(doc.Name)
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}

	errs := werrors.NewMultipleErrors()
	if len(doc.Instrumentations) == 0 {
		errs.Add(werrors.New(werrors.ConfigurationErrorCode, "rules file declares no instrumentations").
			WithLocation(werrors.SourceLocation{File: filename}))
	}

	entries := make([]compiledEntry, 0, len(doc.Instrumentations))
	for idx, entry := range doc.Instrumentations {
		compiled, entryErrs := l.compileEntry(filename, idx, entry)
		for _, err := range entryErrs {
			errs.Add(err)
		}
		if len(entryErrs) == 0 {
			entries = append(entries, compiled)
		}
	}
	if err := errs.ErrOrNil(); err != nil {
		return nil, err
	}

	inst, err := weaver.Define(name, func(i *weaver.Instrumentation) error {
		for _, e := range entries {
			if err := l.declare(i, e); err != nil {
				return entryError(filename, e.index, e.line, err, "cannot declare instrumentation")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Debug("compiled rules file",
		slog.String("file", filename),
		slog.String("module", inst.Name()),
		slog.Int("descriptions", inst.Len()))
	return inst, nil
}

func (l *Loader) compileEntry(filename string, idx int, entry Entry) (compiledEntry, []werrors.WeaverError) {
	var errs []werrors.WeaverError
	fail := func(line int, cause error, format string, args ...interface{}) {
		errs = append(errs, entryError(filename, idx, line, cause, format, args...))
	}

	compiled := compiledEntry{index: idx, line: entry.Line}
	switch {
	case len(entry.SubtypeOf) > 0 && len(entry.Target) > 0:
		fail(entry.Line, nil, "entry sets both subtype_of and target")
	case len(entry.SubtypeOf) > 0:
		compiled.subtype = true
		compiled.names = l.expandAll(filename, idx, entry.Line, entry.SubtypeOf, &errs)
	case len(entry.Target) > 0:
		compiled.names = l.expandAll(filename, idx, entry.Line, entry.Target, &errs)
	default:
		fail(entry.Line, nil, "entry needs subtype_of or target")
	}

	for _, rule := range entry.Advisors {
		pred, err := l.parser.Compile(rule.Match)
		if err != nil {
			fail(rule.Line, err, "invalid match expression %q", rule.Match)
			continue
		}
		advisorName, err := l.expand(rule.Advisor)
		if err != nil {
			fail(rule.Line, err, "invalid advisor")
			continue
		}
		advisor, err := l.refs.ResolveAdvisor(advisorName)
		if err != nil {
			fail(rule.Line, err, "cannot resolve advisor")
			continue
		}
		compiled.bindings = append(compiled.bindings, compiledBinding{predicate: pred, advisor: advisor})
	}

	for _, name := range entry.Mixins {
		mixinName, err := l.expand(name)
		if err != nil {
			fail(entry.Line, err, "invalid mixin")
			continue
		}
		mixin, err := l.refs.ResolveMixin(mixinName)
		if err != nil {
			fail(entry.Line, err, "cannot resolve mixin")
			continue
		}
		compiled.mixins = append(compiled.mixins, mixin)
	}

	return compiled, errs
}

func (l *Loader) expandAll(filename string, idx, line int, names []string, errs *[]werrors.WeaverError) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		expanded, err := l.expand(name)
		if err != nil {
			*errs = append(*errs, entryError(filename, idx, line, err, "invalid type name"))
			continue
		}
		out = append(out, expanded)
	}
	return out
}

// expand rewrites ./pkg.Type names against the module path
func (l *Loader) expand(name string) (string, error) {
	name = strings.TrimSpace(name)
	if !strings.HasPrefix(name, "./") {
		return name, nil
	}
	if l.modulePath == "" {
		return "", werrors.Newf(werrors.ConfigurationErrorCode, "%q is relative but no module path is known", name).
			WithSuggestion("run weaver inside a Go module or pass -module")
	}
	return l.modulePath + "/" + strings.TrimPrefix(name, "./"), nil
}

func (l *Loader) declare(i *weaver.Instrumentation, e compiledEntry) error {
	configure := func(b *weaver.Builder) *weaver.Builder {
		for _, binding := range e.bindings {
			b = b.WithAdvisorFor(binding.predicate, binding.advisor)
		}
		for _, mixin := range e.mixins {
			b = b.WithMixin(mixin)
		}
		return b
	}

	if e.subtype {
		return i.ForSubtypesOf(e.names, configure)
	}
	return i.ForTargetTypes(e.names, func(b *weaver.Builder) (*weaver.InstrumentationDescription, error) {
		return configure(b).Build()
	})
}

func entryError(filename string, idx, line int, cause error, format string, args ...interface{}) *werrors.BaseError {
	return werrors.New(werrors.ConfigurationErrorCode, fmt.Sprintf("instrumentations[%d]: ", idx)+fmt.Sprintf(format, args...)).
		WithLocation(werrors.SourceLocation{File: filename, Line: line}).
		WithCause(cause).
		WithContext("entry", idx)
}

package expr

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	werrors "github.com/toyz/weaver/internal/errors"
	"github.com/toyz/weaver/pkg/weaver"
)

// Parser parses and compiles matcher expressions using alecthomas/participle
type Parser struct {
	parser *participle.Parser[Expression]
}

// NewParser creates a new matcher expression parser
func NewParser() *Parser {
	lex := lexer.MustSimple([]lexer.SimpleRule{
		{Name: "String", Pattern: `"(\\.|[^"\\])*"`},
		{Name: "Int", Pattern: `-?[0-9]+`},
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
		{Name: "Operator", Pattern: `&&|\|\||[!(),]`},
		{Name: "Whitespace", Pattern: `\s+`},
	})

	parser := participle.MustBuild[Expression](
		participle.Lexer(lex),
		participle.Elide("Whitespace"),
		participle.Unquote("String"),
		participle.UseLookahead(2),
	)

	return &Parser{parser: parser}
}

var defaultParser = NewParser()

// Compile parses source with the default parser and compiles it
func Compile(source string) (weaver.MethodPredicate, error) {
	return defaultParser.Compile(source)
}

// Parse parses source into an expression tree
func (p *Parser) Parse(source string) (*Expression, error) {
	if strings.TrimSpace(source) == "" {
		return nil, werrors.New(werrors.SyntaxErrorCode, "empty matcher expression").
			WithSuggestion(`write a predicate such as method("Get") && takesArguments(1)`)
	}

	ast, err := p.parser.ParseString("", source)
	if err != nil {
		return nil, syntaxError(err, source)
	}
	return ast, nil
}

// Compile parses source and compiles it into a method predicate
func (p *Parser) Compile(source string) (weaver.MethodPredicate, error) {
	ast, err := p.Parse(source)
	if err != nil {
		return weaver.MethodPredicate{}, err
	}
	return CompileExpression(ast)
}

// CompileExpression compiles a parsed expression into a method predicate
func CompileExpression(e *Expression) (weaver.MethodPredicate, error) {
	var result weaver.MethodPredicate
	for i, c := range e.Or {
		p, err := compileConjunction(c)
		if err != nil {
			return weaver.MethodPredicate{}, err
		}
		if i == 0 {
			result = p
		} else {
			result = weaver.Or(result, p)
		}
	}
	return result, nil
}

func compileConjunction(c *Conjunction) (weaver.MethodPredicate, error) {
	var result weaver.MethodPredicate
	for i, u := range c.And {
		p, err := compileUnary(u)
		if err != nil {
			return weaver.MethodPredicate{}, err
		}
		if i == 0 {
			result = p
		} else {
			result = weaver.And(result, p)
		}
	}
	return result, nil
}

func compileUnary(u *Unary) (weaver.MethodPredicate, error) {
	if u.Not != nil {
		p, err := compileUnary(u.Not)
		if err != nil {
			return weaver.MethodPredicate{}, err
		}
		return weaver.Not(p), nil
	}
	if u.Primary.Group != nil {
		return CompileExpression(u.Primary.Group)
	}
	return compileCall(u.Primary.Call)
}

func compileCall(c *Call) (weaver.MethodPredicate, error) {
	fn, ok := builtins[c.Name]
	if !ok {
		return weaver.MethodPredicate{}, errorAt(c.Pos, werrors.SyntaxErrorCode, "unknown predicate function %q", c.Name).
			WithSuggestion("available functions: " + strings.Join(FunctionNames(), ", "))
	}
	p, err := fn.compile(c)
	if err != nil {
		var base *werrors.BaseError
		if errors.As(err, &base) && base.Loc.IsEmpty() {
			base.WithLocation(location(c.Pos))
		}
		return weaver.MethodPredicate{}, err
	}
	return p, nil
}

// FunctionNames lists the predicate functions the language understands
func FunctionNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func syntaxError(err error, source string) error {
	var perr participle.Error
	if errors.As(err, &perr) {
		return errorAt(perr.Position(), werrors.SyntaxErrorCode, "%s", perr.Message()).
			WithContext("expression", source)
	}
	return werrors.Wrap(werrors.SyntaxErrorCode, "invalid matcher expression", err).
		WithContext("expression", source)
}

func errorAt(pos lexer.Position, code werrors.ErrorCode, format string, args ...interface{}) *werrors.BaseError {
	return werrors.New(code, fmt.Sprintf(format, args...)).WithLocation(location(pos))
}

func location(pos lexer.Position) werrors.SourceLocation {
	return werrors.SourceLocation{Line: pos.Line, Column: pos.Column}
}

package expr

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// Expression is the root of a matcher expression: a disjunction of conjunctions
type Expression struct {
	Pos lexer.Position

	Or []*Conjunction `parser:"@@ ( '||' @@ )*"`
}

// Conjunction is a list of operands joined by &&
type Conjunction struct {
	Pos lexer.Position

	And []*Unary `parser:"@@ ( '&&' @@ )*"`
}

// Unary is an optionally negated primary
type Unary struct {
	Pos lexer.Position

	Not     *Unary   `parser:"  '!' @@"`
	Primary *Primary `parser:"| @@"`
}

// Primary is a function call or a parenthesized expression
type Primary struct {
	Call  *Call       `parser:"  @@"`
	Group *Expression `parser:"| '(' @@ ')'"`
}

// Call is a predicate function invocation such as method("Get")
type Call struct {
	Pos lexer.Position

	Name string      `parser:"@Ident '('"`
	Args []*Argument `parser:"( @@ ( ',' @@ )* )? ')'"`
}

// Argument is a string or integer literal. Integers keep their source text
// so that out-of-range values are reported when the call is compiled.
type Argument struct {
	Pos lexer.Position

	String *string `parser:"  @String"`
	Int    *string `parser:"| @Int"`
}

// Kind names the argument's literal kind
func (a *Argument) Kind() string {
	if a.String != nil {
		return "string"
	}
	return "int"
}

// String renders the expression back into source form
func (e *Expression) String() string {
	parts := make([]string, len(e.Or))
	for i, c := range e.Or {
		parts[i] = c.String()
	}
	return strings.Join(parts, " || ")
}

func (c *Conjunction) String() string {
	parts := make([]string, len(c.And))
	for i, u := range c.And {
		parts[i] = u.String()
	}
	return strings.Join(parts, " && ")
}

func (u *Unary) String() string {
	if u.Not != nil {
		return "!" + u.Not.String()
	}
	if u.Primary.Group != nil {
		return "(" + u.Primary.Group.String() + ")"
	}
	return u.Primary.Call.String()
}

func (c *Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		if a.String != nil {
			args[i] = strconv.Quote(*a.String)
		} else {
			args[i] = *a.Int
		}
	}
	return c.Name + "(" + strings.Join(args, ", ") + ")"
}

package expr

import (
	"strconv"
	"strings"

	werrors "github.com/toyz/weaver/internal/errors"
	"github.com/toyz/weaver/pkg/weaver"
)

type builtin struct {
	usage   string
	compile func(c *Call) (weaver.MethodPredicate, error)
}

// builtins is populated in init because its entries refer back to it for
// usage strings.
var builtins map[string]builtin

func init() {
	builtins = map[string]builtin{
		"method": {
			usage:   `method("Name")`,
			compile: compileNamed,
		},
		"named": {
			usage:   `named("Name")`,
			compile: compileNamed,
		},
		"anyMethod": {
			usage: `anyMethod("A", "B", ...)`,
			compile: func(c *Call) (weaver.MethodPredicate, error) {
				names, err := stringArgs(c)
				if err != nil {
					return weaver.MethodPredicate{}, err
				}
				return weaver.AnyMethod(names...)
			},
		},
		"takesArguments": {
			usage: `takesArguments(2) or takesArguments("T1", "T2", ...)`,
			compile: func(c *Call) (weaver.MethodPredicate, error) {
				if len(c.Args) == 1 && c.Args[0].Int != nil {
					n, err := nonNegative(c.Args[0], "argument count")
					if err != nil {
						return weaver.MethodPredicate{}, err
					}
					return weaver.TakesArguments(n), nil
				}
				names, err := stringArgs(c)
				if err != nil {
					return weaver.MethodPredicate{}, err
				}
				types := make([]weaver.TypeRef, len(names))
				for i, name := range names {
					if strings.TrimSpace(name) == "" {
						return weaver.MethodPredicate{}, blankError(c, c.Args[i], "type name")
					}
					types[i] = weaver.TypeNamed(name)
				}
				return weaver.TakesArgumentTypes(types...), nil
			},
		},
		"takesArgument": {
			usage: `takesArgument(0, "T")`,
			compile: func(c *Call) (weaver.MethodPredicate, error) {
				if len(c.Args) != 2 || c.Args[0].Int == nil || c.Args[1].String == nil {
					return weaver.MethodPredicate{}, usageError(c)
				}
				index, err := nonNegative(c.Args[0], "argument index")
				if err != nil {
					return weaver.MethodPredicate{}, err
				}
				if strings.TrimSpace(*c.Args[1].String) == "" {
					return weaver.MethodPredicate{}, blankError(c, c.Args[1], "type name")
				}
				return weaver.TakesArgument(index, weaver.TypeNamed(*c.Args[1].String)), nil
			},
		},
		"isConstructor": nullary("isConstructor()", weaver.IsConstructor),
		"isAbstract":    nullary("isAbstract()", weaver.IsAbstract),
		"any":           nullary("any()", weaver.Any),
		"none":          nullary("none()", weaver.None),
	}
}

func nullary(usage string, fn func() weaver.MethodPredicate) builtin {
	return builtin{
		usage: usage,
		compile: func(c *Call) (weaver.MethodPredicate, error) {
			if len(c.Args) != 0 {
				return weaver.MethodPredicate{}, usageError(c)
			}
			return fn(), nil
		},
	}
}

func compileNamed(c *Call) (weaver.MethodPredicate, error) {
	if len(c.Args) != 1 || c.Args[0].String == nil {
		return weaver.MethodPredicate{}, usageError(c)
	}
	if strings.TrimSpace(*c.Args[0].String) == "" {
		return weaver.MethodPredicate{}, blankError(c, c.Args[0], "method name")
	}
	return weaver.Named(*c.Args[0].String), nil
}

// nonNegative converts an integer literal, rejecting values that overflow
// int or are negative
func nonNegative(a *Argument, what string) (int, error) {
	n, err := strconv.Atoi(*a.Int)
	if err != nil {
		return 0, werrors.Newf(werrors.SyntaxErrorCode, "integer %s out of range", *a.Int).
			WithLocation(location(a.Pos))
	}
	if n < 0 {
		return 0, werrors.Newf(werrors.InvalidArgumentCode, "%s cannot be negative, got %d", what, n).
			WithLocation(location(a.Pos))
	}
	return n, nil
}

func blankError(c *Call, a *Argument, what string) *werrors.BaseError {
	return werrors.Newf(werrors.InvalidArgumentCode, "%s: %s cannot be blank", c.Name, what).
		WithLocation(location(a.Pos)).
		WithSuggestion("usage: " + builtins[c.Name].usage)
}

func stringArgs(c *Call) ([]string, error) {
	names := make([]string, len(c.Args))
	for i, a := range c.Args {
		if a.String == nil {
			return nil, werrors.Newf(werrors.SyntaxErrorCode, "%s: argument %d must be a string, got %s", c.Name, i+1, a.Kind()).
				WithLocation(location(a.Pos)).
				WithSuggestion("usage: " + builtins[c.Name].usage)
		}
		names[i] = *a.String
	}
	return names, nil
}

func usageError(c *Call) *werrors.BaseError {
	return werrors.Newf(werrors.SyntaxErrorCode, "invalid arguments in %s", c.String()).
		WithLocation(location(c.Pos)).
		WithSuggestion("usage: " + builtins[c.Name].usage)
}

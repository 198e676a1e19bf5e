// Package advice defines the runtime side of an instrumentation description:
// the hooks a weaving engine calls around matched methods, and the built-in
// advisors and mixins that descriptions can reference.
package advice

import "context"

// Call identifies one invocation of an instrumented method
type Call struct {
	Type   string // qualified receiver type, e.g. net/http.Handler
	Method string
	Args   []any
}

// FullName returns Type.Method, or just Method for package functions
func (c Call) FullName() string {
	if c.Type == "" {
		return c.Method
	}
	return c.Type + "." + c.Method
}

// Advisor is behavior injected around a matched method.
//
// OnEnter runs before the method and returns the context the method and
// OnExit observe. OnExit receives the method's error, if any.
type Advisor interface {
	OnEnter(ctx context.Context, call Call) context.Context
	OnExit(ctx context.Context, call Call, err error)
}

// Around runs fn with every advisor wrapped around it. Enter hooks run in
// order and exit hooks in reverse order, each exit seeing the context its
// own enter returned.
func Around(ctx context.Context, call Call, advisors []Advisor, fn func(context.Context) error) error {
	ctxs := make([]context.Context, len(advisors))
	for i, a := range advisors {
		ctx = a.OnEnter(ctx, call)
		ctxs[i] = ctx
	}

	err := fn(ctx)

	for i := len(advisors) - 1; i >= 0; i-- {
		advisors[i].OnExit(ctxs[i], call, err)
	}
	return err
}

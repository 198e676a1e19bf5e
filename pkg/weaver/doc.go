// Package weaver declares which types and methods receive injected behavior.
//
// Declarations are built from two pieces. Method predicates test a method's
// structural signature and compose with And, Or and Not:
//
//	p := weaver.Named("ServeHTTP").And(weaver.TakesArguments(2))
//
// An Instrumentation associates type selectors with advisor bindings and
// mixins, producing immutable InstrumentationDescription values for a
// weaving engine to consume:
//
//	inst, err := weaver.Define("http", func(i *weaver.Instrumentation) error {
//		return i.ForSubtypeOf("net/http.Handler", func(b *weaver.Builder) *weaver.Builder {
//			return weaver.WithAdvisorFor[advice.TracingAdvisor](b, p)
//		})
//	})
//
// Nothing in this package loads, rewrites or runs code.
package weaver

package weaver

import werrors "github.com/toyz/weaver/internal/errors"

// ErrorCode classifies weaver errors. Codes are errors themselves and are
// meant to be used with errors.Is:
//
//	if errors.Is(err, weaver.ErrInvalidArgument) { ... }
type ErrorCode = werrors.ErrorCode

const (
	// ErrInvalidArgument reports malformed or empty names, lists and predicates
	ErrInvalidArgument = werrors.InvalidArgumentCode
	// ErrInvalidState reports use of a builder past its finalization
	ErrInvalidState = werrors.InvalidStateCode
	// ErrSyntax reports a malformed matcher expression
	ErrSyntax = werrors.SyntaxErrorCode
	// ErrConfiguration reports an invalid rules or config file
	ErrConfiguration = werrors.ConfigurationErrorCode
	// ErrResolution reports an advisor or mixin name that could not be resolved
	ErrResolution = werrors.ResolutionErrorCode
)

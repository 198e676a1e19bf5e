package errors

import "fmt"

// Common error wrapping patterns used throughout the codebase

// WrapFileSystemError wraps file system related errors
func WrapFileSystemError(operation, path string, cause error) *BaseError {
	message := fmt.Sprintf("failed to %s file '%s'", operation, path)
	return Wrap(FileSystemErrorCode, message, cause).
		WithLocation(SourceLocation{File: path}).
		WithContext("operation", operation)
}

// WrapConfigurationError wraps configuration-related errors
func WrapConfigurationError(operation, item string, cause error) *BaseError {
	message := fmt.Sprintf("failed to %s %s", operation, item)
	return Wrap(ConfigurationErrorCode, message, cause).
		WithContext("operation", operation)
}

// WrapParseError wraps an error with a "failed to parse" message
func WrapParseError(item string, cause error) *BaseError {
	return Wrap(SyntaxErrorCode, fmt.Sprintf("failed to parse %s", item), cause)
}

// WrapResolutionError wraps errors from resolving names, types or packages
func WrapResolutionError(item string, cause error) *BaseError {
	return Wrap(ResolutionErrorCode, fmt.Sprintf("cannot resolve %s", item), cause)
}

// Collect flattens err into errs. Collections are merged, weaver errors are
// added as is and anything else is wrapped with UnknownErrorCode.
func Collect(errs *MultipleErrors, err error) {
	switch e := err.(type) {
	case nil:
	case *MultipleErrors:
		errs.Errors = append(errs.Errors, e.Errors...)
	case WeaverError:
		errs.Add(e)
	default:
		errs.Add(Wrap(UnknownErrorCode, "unexpected error", err))
	}
}

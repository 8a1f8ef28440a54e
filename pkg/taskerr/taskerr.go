// Package taskerr provides the error taxonomy for an Autocoder run.
//
// Every failure is fatal and aborts the run, except KindLinkWarning which
// callers log and swallow. Nothing is retried.
package taskerr

import (
	"errors"
	"fmt"
)

// Kind classifies a task error.
type Kind int8

const (
	// KindValidation represents bad or missing task input.
	KindValidation Kind = iota
	// KindConfiguration represents missing ambient context (endpoint, token, binaries).
	KindConfiguration
	// KindNotFound represents a remote resource that does not exist.
	KindNotFound
	// KindExecution represents an external process or API call that reported failure.
	KindExecution
	// KindLinkWarning represents a failure to link a work item to a pull request.
	// It is the only recoverable kind.
	KindLinkWarning
)

// String returns the string representation of the error kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConfiguration:
		return "configuration"
	case KindNotFound:
		return "not_found"
	case KindExecution:
		return "execution"
	case KindLinkWarning:
		return "link_warning"
	default:
		return "invalid"
	}
}

// Error is a classified task error.
//
//nolint:govet // Logical grouping preferred over memory optimization
type Error struct {
	Kind Kind
	// Op names the failing operation (e.g. "checkout", "createPullRequest"). Optional.
	Op string
	// Msg is the operator-facing message.
	Msg string
	// ExitCode is the exit code of a failed external process, or 0.
	ExitCode int
	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return e.Msg + ": " + e.Err.Error()
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Kind.String() + " error"
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Validation creates a KindValidation error.
func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// Configuration creates a KindConfiguration error.
func Configuration(format string, args ...any) error {
	return &Error{Kind: KindConfiguration, Msg: fmt.Sprintf(format, args...)}
}

// NotFound creates a KindNotFound error.
func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Execution creates a KindExecution error for the named operation.
func Execution(op, format string, args ...any) error {
	return &Error{Kind: KindExecution, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// ExecutionExit creates a KindExecution error carrying a process exit code.
func ExecutionExit(op string, exitCode int, format string, args ...any) error {
	return &Error{Kind: KindExecution, Op: op, ExitCode: exitCode, Msg: fmt.Sprintf(format, args...)}
}

// LinkWarning creates a KindLinkWarning error wrapping cause.
func LinkWarning(cause error, format string, args ...any) error {
	return &Error{Kind: KindLinkWarning, Op: "linkWorkItem", Msg: fmt.Sprintf(format, args...), Err: cause}
}

// Wrap prefixes err with a message. The kind of the innermost classified
// error is kept; unclassified causes become KindExecution.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	kind := KindExecution
	var te *Error
	if errors.As(err, &te) {
		kind = te.Kind
	}
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the outermost classified error in err's chain.
// ok is false when err carries no classification.
func KindOf(err error) (kind Kind, ok bool) {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind, true
	}
	return 0, false
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

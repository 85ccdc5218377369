package errors

import (
	"fmt"
)

// ParseError represents a failure to parse an evidence record, profile
// document, or loop configuration file, with optional line metadata.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}

	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures policy or loop configuration validation issues.
// These are configuration errors: they fail fast, before any attempt runs.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// UnknownCheckerError is returned when a caller requests a checker name
// that is not registered. Requesting an unknown checker is a hard
// configuration error, never a silently skipped check.
type UnknownCheckerError struct {
	Name string
}

// NewUnknownCheckerError constructs an UnknownCheckerError.
func NewUnknownCheckerError(name string) error {
	return &UnknownCheckerError{Name: name}
}

func (e *UnknownCheckerError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("unknown checker %q\nHint: run 'simgate compare --list-checkers' to see registered checkers", e.Name)
}

// ProfileNotFoundError is returned when the profile store cannot resolve a
// profile name to a document.
type ProfileNotFoundError struct {
	Profile string
	Dir     string
}

// NewProfileNotFoundError constructs a ProfileNotFoundError.
func NewProfileNotFoundError(profile, dir string) error {
	return &ProfileNotFoundError{Profile: profile, Dir: dir}
}

func (e *ProfileNotFoundError) Error() string {
	if e == nil {
		return ""
	}
	if e.Dir != "" {
		return fmt.Sprintf("profile %q not found in %s", e.Profile, e.Dir)
	}
	return fmt.Sprintf("profile %q not found", e.Profile)
}

// ExecutionError represents a runtime failure while driving a remediation
// attempt or an execution backend. Attempt-level failures are recorded and
// scored rather than aborting the loop; this type covers the plumbing
// around them.
type ExecutionError struct {
	Stage string
	Err   error
}

// NewExecutionError constructs an ExecutionError.
func NewExecutionError(stage string, err error) error {
	return &ExecutionError{Stage: stage, Err: err}
}

func (e *ExecutionError) Error() string {
	if e == nil {
		return ""
	}
	if e.Stage != "" {
		return fmt.Sprintf("execution error in %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("execution error: %v", e.Err)
}

// Unwrap exposes the root error.
func (e *ExecutionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// NotFoundError reports that a target resource does not exist on the
// collaborating control plane. Call sites decide whether absence means
// "skip" or "fail"; the type only carries identity.
type NotFoundError struct {
	Kind string
	Name string
	Err  error
}

// NewNotFoundError constructs a NotFoundError for the named resource.
func NewNotFoundError(kind, name string, err error) error {
	return &NotFoundError{Kind: kind, Name: name, Err: err}
}

func (e *NotFoundError) Error() string {
	if e == nil {
		return ""
	}
	if e.Kind != "" {
		return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
	}
	return fmt.Sprintf("%q not found", e.Name)
}

// Unwrap exposes the underlying error.
func (e *NotFoundError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return stderrors.As(err, &notFound)
}

// TimeoutError reports that a bounded wait elapsed before the observed
// state converged. It is distinct from NotFoundError so callers can tell
// "never converged" from "never existed".
type TimeoutError struct {
	Op     string
	Budget time.Duration
	Err    error
}

// NewTimeoutError constructs a TimeoutError for the named operation.
func NewTimeoutError(op string, budget time.Duration, err error) error {
	return &TimeoutError{Op: op, Budget: budget, Err: err}
}

func (e *TimeoutError) Error() string {
	if e == nil {
		return ""
	}
	if e.Budget > 0 {
		return fmt.Sprintf("timed out after %s waiting for %s", e.Budget, e.Op)
	}
	return fmt.Sprintf("timed out waiting for %s", e.Op)
}

// Unwrap exposes the underlying error.
func (e *TimeoutError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsTimeout reports whether err wraps a TimeoutError.
func IsTimeout(err error) bool {
	var timeout *TimeoutError
	return stderrors.As(err, &timeout)
}

// ApplyError reports that the declarative engine rejected or failed a
// change. It is always surfaced, never silently retried.
type ApplyError struct {
	Plan    string
	Message string
	Err     error
}

// NewApplyError constructs an ApplyError for the named plan.
func NewApplyError(plan string, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ApplyError{Plan: plan, Message: message, Err: err}
}

func (e *ApplyError) Error() string {
	if e == nil {
		return ""
	}
	if e.Plan != "" {
		return fmt.Sprintf("apply failed for plan %s: %s", e.Plan, e.Message)
	}
	return fmt.Sprintf("apply failed: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ApplyError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ActionFailedError reports that an externally executed remediation action
// reached a failed terminal state. Callers keep the surrounding action list
// so operators can see what did succeed.
type ActionFailedError struct {
	Action  string
	State   string
	Message string
}

// NewActionFailedError constructs an ActionFailedError.
func NewActionFailedError(action, state, message string) error {
	return &ActionFailedError{Action: action, State: state, Message: message}
}

func (e *ActionFailedError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return fmt.Sprintf("action %s ended in state %s: %s", e.Action, e.State, e.Message)
	}
	return fmt.Sprintf("action %s ended in state %s", e.Action, e.State)
}

// ParseError represents a YAML parsing failure with optional line metadata.
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

// ValidationError captures configuration validation issues.
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

// StepError names the step a plan run failed on.
type StepError struct {
	Step string
	Err  error
}

// NewStepError constructs a StepError.
func NewStepError(step string, err error) error {
	return &StepError{Step: step, Err: err}
}

func (e *StepError) Error() string {
	if e == nil {
		return ""
	}
	if e.Step != "" {
		return fmt.Sprintf("step %s failed: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("step failed: %v", e.Err)
}

// Unwrap exposes the root error.
func (e *StepError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

package model

import "fmt"

// ResultType classifies the outcome of a single step phase.
type ResultType string

const (
	// ResultCompleted indicates the phase did its work (for a skip check,
	// that execution should proceed).
	ResultCompleted ResultType = "completed"
	// ResultFailed indicates the phase hit an unrecoverable error.
	ResultFailed ResultType = "failed"
	// ResultSkipped indicates the desired end-state already holds.
	ResultSkipped ResultType = "skipped"
)

// Result is the tri-state outcome a step phase returns. A failed Result
// always carries a message; a skipped Result may carry a reason. Results
// are produced once per phase invocation and not mutated after return,
// except for display-only payload rewrites by the caller.
type Result struct {
	Type    ResultType
	Message string
	Payload any
}

// Completed returns a completed Result with no payload.
func Completed() Result {
	return Result{Type: ResultCompleted}
}

// CompletedPayload returns a completed Result carrying a structured value.
func CompletedPayload(payload any) Result {
	return Result{Type: ResultCompleted, Payload: payload}
}

// Failed returns a failed Result with a formatted message.
func Failed(format string, args ...any) Result {
	return Result{Type: ResultFailed, Message: fmt.Sprintf(format, args...)}
}

// FailedPayload returns a failed Result that still carries a structured
// value, for flows that report partial progress alongside the failure.
func FailedPayload(payload any, format string, args ...any) Result {
	return Result{Type: ResultFailed, Message: fmt.Sprintf(format, args...), Payload: payload}
}

// FailedErr returns a failed Result carrying the error's text.
func FailedErr(err error) Result {
	if err == nil {
		return Result{Type: ResultFailed, Message: "unknown failure"}
	}
	return Result{Type: ResultFailed, Message: err.Error()}
}

// Skipped returns a skipped Result with an optional reason.
func Skipped(reason string) Result {
	return Result{Type: ResultSkipped, Message: reason}
}

// IsFailed reports whether the Result is a failure.
func (r Result) IsFailed() bool {
	return r.Type == ResultFailed
}

// IsSkipped reports whether the Result is a skip.
func (r Result) IsSkipped() bool {
	return r.Type == ResultSkipped
}

// IsCompleted reports whether the Result is a completion.
func (r Result) IsCompleted() bool {
	return r.Type == ResultCompleted
}

// Package kerrors implements the uniform result envelope and error taxonomy:
// every public operation surfaces one of these kinds instead of
// a bare error string.
package kerrors

import "fmt"

// Kind is the error taxonomy shared by every public operation.
type Kind string

const (
	NotFound           Kind = "not_found"
	ParseError         Kind = "parse_error"
	ValidationFailed   Kind = "validation_failed"
	SignatureMissing   Kind = "signature_missing"
	IntegrityMismatch  Kind = "integrity_mismatch"
	ChainError         Kind = "chain_error"
	ConfigValidation   Kind = "config_validation"
	PrimitiveExecution Kind = "primitive_execution"
)

// Error is the structured error type returned by every public operation.
// It carries enough detail for a caller (CLI or library) to render the
// envelope: {status: error, error, details, hint, solution}.
type Error struct {
	Kind     Kind
	Message  string
	Details  []string
	Hint     string
	Solution map[string]any
	Wrapped  error
}

func (e *Error) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Wrapped }

// New builds an Error with no details/hint/solution.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error wrapping an underlying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Wrapped: cause}
}

// WithDetails attaches an issues list (used by ValidationFailed, ConfigValidation).
func (e *Error) WithDetails(details ...string) *Error {
	e.Details = append(e.Details, details...)
	return e
}

// WithHint attaches a remediation hint (e.g. a suggested `sign`/`load` command).
func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint
	return e
}

// WithSolution attaches a structured remediation (e.g. rename/edit commands).
func (e *Error) WithSolution(solution map[string]any) *Error {
	e.Solution = solution
	return e
}

// Envelope is the JSON-serializable result shape every public operation returns.
type Envelope struct {
	Status   string          `json:"status"`
	Error    string          `json:"error,omitempty"`
	Details  []string        `json:"details,omitempty"`
	Hint     string          `json:"hint,omitempty"`
	Solution map[string]any  `json:"solution,omitempty"`
	Data     any             `json:"data,omitempty"`
}

// Ok wraps a successful result payload.
func Ok(data any) Envelope {
	return Envelope{Status: "ok", Data: data}
}

// FromError converts a *kerrors.Error (or any error) into a failure envelope.
func FromError(err error) Envelope {
	if err == nil {
		return Envelope{Status: "ok"}
	}
	var ke *Error
	if e, ok := err.(*Error); ok {
		ke = e
	} else {
		ke = New("", err.Error())
	}
	return Envelope{
		Status:   "error",
		Error:    ke.Error(),
		Details:  ke.Details,
		Hint:     ke.Hint,
		Solution: ke.Solution,
	}
}

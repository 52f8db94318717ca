package template

import (
	"fmt"

	"vesper/internal/diag"
	"vesper/internal/source"
)

// FailKind separates the three error tiers of the engine.
type FailKind uint8

const (
	// FailHard aborts the enclosing declaration: syntax that can never be
	// parameter-dependent, or a genuinely unknown simple name.
	FailHard FailKind = iota
	// FailSoft is a substitution or constraint failure found while trying
	// one candidate among several; the caller moves on to the next.
	FailSoft
	// FailDeferred marks a name unresolvable only because it depends on an
	// enclosing, not-yet-instantiated generic. Neither an error nor a
	// candidate-removal event; it is retried once the outer generic is
	// instantiated.
	FailDeferred
)

func (k FailKind) String() string {
	switch k {
	case FailHard:
		return "hard"
	case FailSoft:
		return "soft"
	case FailDeferred:
		return "deferred"
	}
	return "FailKind(?)"
}

// Failure is the engine's error currency. Soft failures carry the detail the
// overload machinery surfaces when every candidate is exhausted.
type Failure struct {
	Kind    FailKind
	Code    diag.Code
	Span    source.Span
	Message string

	FailedRequirement string
	Suggestion        string
}

func (f *Failure) Error() string {
	if f == nil {
		return "<nil>"
	}
	if f.FailedRequirement != "" {
		return fmt.Sprintf("%s: %s (failed: %s)", f.Kind, f.Message, f.FailedRequirement)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// IsHard reports whether f must abort the enclosing declaration.
func (f *Failure) IsHard() bool {
	return f != nil && f.Kind == FailHard
}

// IsSoft reports whether f removes one candidate without aborting.
func (f *Failure) IsSoft() bool {
	return f != nil && f.Kind == FailSoft
}

// IsDeferred reports whether f only means "try again later".
func (f *Failure) IsDeferred() bool {
	return f != nil && f.Kind == FailDeferred
}

func hardf(code diag.Code, span source.Span, format string, args ...any) *Failure {
	return &Failure{
		Kind:    FailHard,
		Code:    code,
		Span:    span,
		Message: fmt.Sprintf(format, args...),
	}
}

func softf(code diag.Code, span source.Span, format string, args ...any) *Failure {
	return &Failure{
		Kind:    FailSoft,
		Code:    code,
		Span:    span,
		Message: fmt.Sprintf(format, args...),
	}
}

// UnknownNameFailure builds the hard failure for a name with no registered
// declaration. Exposed for the driver's root walk.
func UnknownNameFailure(ctx *Context, name source.StringID, span source.Span) *Failure {
	return hardf(diag.TplUnknownName, span, "unknown name %s", ctx.lookupName(name))
}

func deferredf(span source.Span, format string, args ...any) *Failure {
	return &Failure{
		Kind:    FailDeferred,
		Code:    diag.TplIncompleteType,
		Span:    span,
		Message: fmt.Sprintf(format, args...),
	}
}

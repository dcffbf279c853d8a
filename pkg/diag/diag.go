// Package diag defines the error taxonomy shared by the block builder, the
// type checker and the execution engine. Every failure of a program is a
// *PositionalError carrying one Kind and, when the originating instruction's
// position is known, its source span.
package diag

import (
	"errors"
	"fmt"

	"bril/interpreter-go/pkg/ast"
)

// Kind names one failure class of the closed taxonomy.
type Kind string

const (
	// Static kinds, raised before any instruction executes.
	UnknownLabel         Kind = "UnknownLabel"
	DuplicateLabel       Kind = "DuplicateLabel"
	DuplicateFunction    Kind = "DuplicateFunction"
	UnknownFunction      Kind = "UnknownFunction"
	MissingReturn        Kind = "MissingReturn"
	MalformedInstruction Kind = "MalformedInstruction"
	TypeMismatch         Kind = "TypeMismatch"
	UndefinedVariable    Kind = "UndefinedVariable"
	ArityMismatch        Kind = "ArityMismatch"
	BadMain              Kind = "BadMain"

	// Dynamic kinds, raised by the execution engine.
	BadInputArguments       Kind = "BadInputArguments"
	DivideByZero            Kind = "DivideByZero"
	InvalidAllocSize        Kind = "InvalidAllocSize"
	InvalidFree             Kind = "InvalidFree"
	MemoryAccessOutOfBounds Kind = "MemoryAccessOutOfBounds"
	UseAfterFree            Kind = "UseAfterFree"
	UninitializedLoad       Kind = "UninitializedLoad"
	MemoryLeak              Kind = "MemoryLeak"
	PhiNoMatch              Kind = "PhiNoMatch"
	StackOverflow           Kind = "StackOverflow"
	OutputFailure           Kind = "OutputFailure"
)

// Phase distinguishes failures found by checking from failures found by running.
type Phase int

const (
	PhaseStatic Phase = iota
	PhaseDynamic
)

func (p Phase) String() string {
	if p == PhaseDynamic {
		return "runtime"
	}
	return "static"
}

// Phase reports when kind is raised. UndefinedVariable is raised by both
// phases; it is classified as static here and the engine marks its own
// occurrences through PositionalError.Phase.
func (k Kind) Phase() Phase {
	switch k {
	case BadInputArguments, DivideByZero, InvalidAllocSize, InvalidFree,
		MemoryAccessOutOfBounds, UseAfterFree, UninitializedLoad, MemoryLeak,
		PhiNoMatch, StackOverflow, OutputFailure:
		return PhaseDynamic
	default:
		return PhaseStatic
	}
}

// PositionalError is the single error type produced for ill-formed or
// failing programs.
type PositionalError struct {
	Kind     Kind
	Phase    Phase
	Message  string
	Function string
	Span     ast.Span
	Err      error
}

func (e *PositionalError) Error() string {
	if e == nil {
		return ""
	}
	if e.Span.IsZero() {
		return e.Message
	}
	return fmt.Sprintf("line %d, column %d: %s", e.Span.Start.Line, e.Span.Start.Column, e.Message)
}

func (e *PositionalError) Unwrap() error {
	return e.Err
}

// New builds an error without position information.
func New(kind Kind, format string, args ...any) *PositionalError {
	return &PositionalError{Kind: kind, Phase: kind.Phase(), Message: fmt.Sprintf(format, args...)}
}

// At builds an error located at span. A zero span leaves the error unpositioned.
func At(span ast.Span, kind Kind, format string, args ...any) *PositionalError {
	err := New(kind, format, args...)
	err.Span = span
	return err
}

// InFunction records the enclosing function name and returns e.
func (e *PositionalError) InFunction(name string) *PositionalError {
	if e != nil && e.Function == "" {
		e.Function = name
	}
	return e
}

// Located fills in span if e does not carry one yet.
func (e *PositionalError) Located(span ast.Span) *PositionalError {
	if e != nil && e.Span.IsZero() {
		e.Span = span
	}
	return e
}

// Dynamic marks e as raised during execution.
func (e *PositionalError) Dynamic() *PositionalError {
	if e != nil {
		e.Phase = PhaseDynamic
	}
	return e
}

// Wrap attaches an underlying cause.
func (e *PositionalError) Wrap(cause error) *PositionalError {
	if e != nil {
		e.Err = cause
	}
	return e
}

// As extracts the PositionalError from err's chain.
func As(err error) (*PositionalError, bool) {
	var perr *PositionalError
	if errors.As(err, &perr) && perr != nil {
		return perr, true
	}
	return nil, false
}

// KindOf returns the kind of the PositionalError in err's chain, or "".
func KindOf(err error) Kind {
	if perr, ok := As(err); ok {
		return perr.Kind
	}
	return ""
}

package cim

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	ErrDuplicateMRID        = errors.New("duplicate mRID")
	ErrNotFound             = errors.New("object not found")
	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrInvalidNominalPhase  = errors.New("invalid nominal phase")
	ErrInvalidTracedPhase   = errors.New("invalid traced phase")
	ErrWrongType            = errors.New("object has the wrong type")
)

// ModelError provides structured error information for network model operations.
type ModelError struct {
	Op      string // Operation that failed (e.g., "add", "set_phase")
	Kind    string // Object kind (e.g., "terminal", "breaker")
	MRID    string // Object mRID (if applicable)
	Cause   error  // Underlying error
	Context string // Additional context
}

// Error implements the error interface.
func (e *ModelError) Error() string {
	subject := e.Kind
	if e.MRID != "" {
		subject = fmt.Sprintf("%s %s", e.Kind, e.MRID)
	}
	if e.Context != "" {
		return fmt.Sprintf("%s %s (%s): %v", e.Op, subject, e.Context, e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, subject, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *ModelError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches the cause.
func (e *ModelError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

// ErrorBuilder provides a fluent interface for building ModelErrors.
type ErrorBuilder struct {
	err ModelError
}

// NewError creates a new error builder with the given operation.
func NewError(op string) *ErrorBuilder {
	return &ErrorBuilder{err: ModelError{Op: op}}
}

// Object sets the kind and mRID of the object involved.
func (b *ErrorBuilder) Object(kind, mRID string) *ErrorBuilder {
	b.err.Kind = kind
	b.err.MRID = mRID
	return b
}

// Context sets additional context information.
func (b *ErrorBuilder) Context(ctx string) *ErrorBuilder {
	b.err.Context = ctx
	return b
}

// Cause sets the underlying error cause.
func (b *ErrorBuilder) Cause(err error) *ErrorBuilder {
	b.err.Cause = err
	return b
}

// Build returns the constructed ModelError.
func (b *ErrorBuilder) Build() *ModelError {
	return &b.err
}

// Err returns the error as an error interface.
func (b *ErrorBuilder) Err() error {
	return &b.err
}

// CrossingPhasesError reports an attempt to overwrite a traced phase with a
// different phase.
func CrossingPhasesError(terminal string, nominal, existing, requested SinglePhaseKind) error {
	return NewError("set_phase").
		Object("terminal", terminal).
		Context(fmt.Sprintf("nominal %s holds %s, requested %s", nominal, existing, requested)).
		Cause(fmt.Errorf("%w: Crossing Phases", ErrUnsupportedOperation)).
		Err()
}

// NotFoundError creates an object not found error.
func NotFoundError(kind, mRID string) error {
	return NewError("get").Object(kind, mRID).Cause(ErrNotFound).Err()
}

// IsCrossingPhases returns true if the error is a crossing phases failure.
func IsCrossingPhases(err error) bool {
	return errors.Is(err, ErrUnsupportedOperation)
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

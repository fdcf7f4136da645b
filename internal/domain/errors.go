package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrLedgerNotFound is returned by repositories when no ledger exists for a username.
	ErrLedgerNotFound = errors.New("trainer workload not found")
	// ErrVersionConflict is returned by repositories when the stored ledger changed since it was loaded.
	ErrVersionConflict = errors.New("trainer workload version conflict")
	// ErrUnsupportedAction is returned when a command cannot be applied to a ledger.
	ErrUnsupportedAction = errors.New("unsupported action type")
)

// FailureKind classifies why a command could not be completed.
type FailureKind int

const (
	// FailureUnexpected covers any runtime error that is not otherwise classified.
	FailureUnexpected FailureKind = iota
	// FailureValidation means the caller supplied data that violates a precondition.
	FailureValidation
	// FailureInfrastructure means the persistence layer was unreachable or erroring.
	FailureInfrastructure
)

// Message prefixes attached to classified failures on the wire.
const (
	ValidationErrorPrefix = "Validation error: "
	DatabaseErrorPrefix   = "Database error: "
	UnexpectedErrorPrefix = "Unexpected error: "
	ProcessingErrorPrefix = "Processing error: "
)

// String returns the metric label for the kind.
func (k FailureKind) String() string {
	switch k {
	case FailureValidation:
		return "validation"
	case FailureInfrastructure:
		return "infrastructure"
	default:
		return "unexpected"
	}
}

// Prefix returns the wire prefix for the kind.
func (k FailureKind) Prefix() string {
	switch k {
	case FailureValidation:
		return ValidationErrorPrefix
	case FailureInfrastructure:
		return DatabaseErrorPrefix
	default:
		return UnexpectedErrorPrefix
	}
}

// Failure is a classified processing error.
type Failure struct {
	Kind FailureKind
	Err  error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return f.Kind.String() + " failure"
	}
	return f.Err.Error()
}

func (f *Failure) Unwrap() error { return f.Err }

// Describe renders the failure with its classification prefix.
func (f *Failure) Describe() string {
	return f.Kind.Prefix() + f.Error()
}

// ValidationError wraps err as a validation failure.
func ValidationError(err error) error {
	return &Failure{Kind: FailureValidation, Err: err}
}

// Validationf builds a validation failure from a format string.
func Validationf(format string, args ...interface{}) error {
	return &Failure{Kind: FailureValidation, Err: fmt.Errorf(format, args...)}
}

func infrastructure(err error) error {
	return &Failure{Kind: FailureInfrastructure, Err: err}
}

func unexpected(err error) error {
	return &Failure{Kind: FailureUnexpected, Err: err}
}

// KindOf classifies err. Errors that are not a *Failure are unexpected.
func KindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return FailureUnexpected
}

// Describe renders any error with the prefix of its classification.
func Describe(err error) string {
	var f *Failure
	if errors.As(err, &f) {
		return f.Describe()
	}
	return UnexpectedErrorPrefix + err.Error()
}

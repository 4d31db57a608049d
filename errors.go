package pgcomposite

import (
	"errors"
	"fmt"
)

// Standard sentinel errors, one per error kind. Every typed error below
// matches its sentinel with errors.Is.
var (
	// ErrInvalidValue is returned when a value has a shape a codec cannot cast.
	ErrInvalidValue = errors.New("pgcomposite: invalid value")

	// ErrOutOfBounds is returned when an enum index is outside its label set.
	ErrOutOfBounds = errors.New("pgcomposite: enum index out of bounds")

	// ErrUnknownLabel is returned when a string is not a member of an enum label set.
	ErrUnknownLabel = errors.New("pgcomposite: unknown enum label")

	// ErrCrossTypeComparison is returned when two enum values of different
	// enum types are compared.
	ErrCrossTypeComparison = errors.New("pgcomposite: cross-type enum comparison")

	// ErrInvalidComparison is returned when an enum value is compared
	// against an operand that is neither an enum value, a string nor a number.
	ErrInvalidComparison = errors.New("pgcomposite: invalid enum comparison")

	// ErrNotFound is returned when a database type does not exist.
	ErrNotFound = errors.New("pgcomposite: type not found")
)

// InvalidValueError reports a value that cannot be cast by a codec.
type InvalidValueError struct {
	Type  string // codec or type name
	Value any
}

// Error returns the error string.
func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("pgcomposite: '%v' (%T) is not a valid %s value", e.Value, e.Value, e.Type)
}

// Is reports whether the target error matches ErrInvalidValue.
func (e *InvalidValueError) Is(err error) bool {
	return err == ErrInvalidValue
}

// NewInvalidValueError returns a new InvalidValueError.
func NewInvalidValueError(typ string, value any) *InvalidValueError {
	return &InvalidValueError{Type: typ, Value: value}
}

// IsInvalidValue returns true if the error is an InvalidValueError.
func IsInvalidValue(err error) bool {
	if err == nil {
		return false
	}
	var e *InvalidValueError
	return errors.As(err, &e) || errors.Is(err, ErrInvalidValue)
}

// OutOfBoundsError reports a numeric enum index outside [0, Len).
type OutOfBoundsError struct {
	Enum  string
	Index any
	Len   int
}

// Error returns the error string.
func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("pgcomposite: index %v is out of bounds for enum %s (0...%d)", e.Index, e.Enum, e.Len)
}

// Is reports whether the target error matches ErrOutOfBounds.
func (e *OutOfBoundsError) Is(err error) bool {
	return err == ErrOutOfBounds
}

// NewOutOfBoundsError returns a new OutOfBoundsError.
func NewOutOfBoundsError(enum string, index any, n int) *OutOfBoundsError {
	return &OutOfBoundsError{Enum: enum, Index: index, Len: n}
}

// IsOutOfBounds returns true if the error is an OutOfBoundsError.
func IsOutOfBounds(err error) bool {
	if err == nil {
		return false
	}
	var e *OutOfBoundsError
	return errors.As(err, &e) || errors.Is(err, ErrOutOfBounds)
}

// UnknownLabelError reports a label that is not declared by an enum.
type UnknownLabelError struct {
	Enum  string
	Label string
}

// Error returns the error string.
func (e *UnknownLabelError) Error() string {
	return fmt.Sprintf("pgcomposite: %q is not valid for enum %s", e.Label, e.Enum)
}

// Is reports whether the target error matches ErrUnknownLabel.
func (e *UnknownLabelError) Is(err error) bool {
	return err == ErrUnknownLabel
}

// NewUnknownLabelError returns a new UnknownLabelError.
func NewUnknownLabelError(enum, label string) *UnknownLabelError {
	return &UnknownLabelError{Enum: enum, Label: label}
}

// IsUnknownLabel returns true if the error is an UnknownLabelError.
func IsUnknownLabel(err error) bool {
	if err == nil {
		return false
	}
	var e *UnknownLabelError
	return errors.As(err, &e) || errors.Is(err, ErrUnknownLabel)
}

// CrossTypeComparisonError reports a comparison between values of two
// different enum types.
type CrossTypeComparisonError struct {
	Left  string
	Right string
}

// Error returns the error string.
func (e *CrossTypeComparisonError) Error() string {
	return fmt.Sprintf("pgcomposite: comparison of %s with %s is not allowed", e.Left, e.Right)
}

// Is reports whether the target error matches ErrCrossTypeComparison.
func (e *CrossTypeComparisonError) Is(err error) bool {
	return err == ErrCrossTypeComparison
}

// NewCrossTypeComparisonError returns a new CrossTypeComparisonError.
func NewCrossTypeComparisonError(left, right string) *CrossTypeComparisonError {
	return &CrossTypeComparisonError{Left: left, Right: right}
}

// IsCrossTypeComparison returns true if the error is a CrossTypeComparisonError.
func IsCrossTypeComparison(err error) bool {
	if err == nil {
		return false
	}
	var e *CrossTypeComparisonError
	return errors.As(err, &e) || errors.Is(err, ErrCrossTypeComparison)
}

// InvalidComparisonError reports an enum compared against an unsupported operand.
type InvalidComparisonError struct {
	Enum    string
	Operand any
}

// Error returns the error string.
func (e *InvalidComparisonError) Error() string {
	return fmt.Sprintf("pgcomposite: comparison of %s with '%v' (%T) is not allowed", e.Enum, e.Operand, e.Operand)
}

// Is reports whether the target error matches ErrInvalidComparison.
func (e *InvalidComparisonError) Is(err error) bool {
	return err == ErrInvalidComparison
}

// NewInvalidComparisonError returns a new InvalidComparisonError.
func NewInvalidComparisonError(enum string, operand any) *InvalidComparisonError {
	return &InvalidComparisonError{Enum: enum, Operand: operand}
}

// IsInvalidComparison returns true if the error is an InvalidComparisonError.
func IsInvalidComparison(err error) bool {
	if err == nil {
		return false
	}
	var e *InvalidComparisonError
	return errors.As(err, &e) || errors.Is(err, ErrInvalidComparison)
}

// NotFoundError represents a database type that could not be found.
type NotFoundError struct {
	kind string // "enum" or "composite"
	name string
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("pgcomposite: %s type %q not found", e.kind, e.name)
}

// Is reports whether the target error matches ErrNotFound.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// Kind returns the kind of type that was searched for.
func (e *NotFoundError) Kind() string {
	return e.kind
}

// Name returns the type name that was searched for.
func (e *NotFoundError) Name() string {
	return e.name
}

// NewNotFoundError returns a new NotFoundError for the given type kind and name.
func NewNotFoundError(kind, name string) *NotFoundError {
	return &NotFoundError{kind: kind, name: name}
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

package gen

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure cases.
var (
	// ErrInvalidSpec indicates an enum definition that cannot be generated.
	ErrInvalidSpec = errors.New("gen: invalid enum spec")
	// ErrMissingConfig indicates a configuration error.
	ErrMissingConfig = errors.New("gen: missing configuration")
	// ErrGenerationFailed indicates a code generation failure.
	ErrGenerationFailed = errors.New("gen: code generation failed")
)

// SpecError reports an invalid enum definition.
type SpecError struct {
	Enum    string
	Message string
}

// Error implements the error interface.
func (e *SpecError) Error() string {
	if e.Enum == "" {
		return "gen: enum spec: " + e.Message
	}
	return fmt.Sprintf("gen: enum %q: %s", e.Enum, e.Message)
}

// Is reports whether the target matches the sentinel error for SpecError.
func (e *SpecError) Is(target error) bool {
	return target == ErrInvalidSpec
}

// NewSpecError creates a new SpecError.
func NewSpecError(enum, message string) *SpecError {
	return &SpecError{Enum: enum, Message: message}
}

// ConfigError represents a generator option error.
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("gen: config error for %q (value: %v): %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("gen: config error for %q: %s", e.Option, e.Message)
}

// Is reports whether the target matches the sentinel error for ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrMissingConfig
}

// NewConfigError creates a new ConfigError.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{Option: option, Value: value, Message: message}
}

// GenerationError represents a failure while rendering, formatting or
// writing a generated file.
type GenerationError struct {
	Phase   string
	File    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	var b strings.Builder
	b.WriteString("gen: generation error")
	if e.Phase != "" {
		b.WriteString(" during ")
		b.WriteString(e.Phase)
	}
	if e.File != "" {
		b.WriteString(" in ")
		b.WriteString(e.File)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for GenerationError.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}

// NewGenerationError creates a new GenerationError.
func NewGenerationError(phase, file, message string, cause error) *GenerationError {
	return &GenerationError{Phase: phase, File: file, Message: message, Cause: cause}
}

// IsSpecError reports whether err is a SpecError.
func IsSpecError(err error) bool {
	return errors.Is(err, ErrInvalidSpec)
}

// IsConfigError reports whether err is a ConfigError.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrMissingConfig)
}

// IsGenerationError reports whether err is a GenerationError.
func IsGenerationError(err error) bool {
	return errors.Is(err, ErrGenerationFailed)
}

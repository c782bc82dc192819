// SPDX-License-Identifier: MPL-2.0

package workspace

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// SeverityWarning indicates a recoverable discovery warning.
	SeverityWarning Severity = "warning"
	// SeverityError indicates a non-fatal discovery error diagnostic.
	SeverityError Severity = "error"

	// CodeModuleLoadSkipped marks a candidate binary that could not be
	// identified or loaded.
	CodeModuleLoadSkipped = "module_load_skipped"
)

var (
	// ErrInvalidConfiguration is the sentinel error wrapped by InvalidConfigurationError.
	ErrInvalidConfiguration = errors.New("invalid workspace configuration")

	// ErrNoModulesFound is the sentinel error wrapped by NoModulesFoundError.
	ErrNoModulesFound = errors.New("no benchmark modules found")
)

type (
	// Severity represents discovery diagnostic severity.
	Severity string

	// Diagnostic is a structured, non-fatal discovery finding returned to
	// callers rather than written to stderr.
	Diagnostic struct {
		Severity Severity
		// Code is a machine-readable identifier (e.g., "module_load_skipped").
		Code    string
		Message string
		Path    string
		Cause   error
	}

	// InvalidConfigurationError is returned when Options fail validation.
	// It carries every field error found.
	InvalidConfigurationError struct {
		FieldErrors []error
	}

	// NoModulesFoundError is returned when discovery completes with an empty
	// module set.
	NoModulesFoundError struct {
		TuningDirectory  string
		BuildMode        string
		TargetIdentifier string
		// Skipped lists the candidates that matched but could not be loaded.
		Skipped []Diagnostic
	}
)

// Error implements the error interface.
func (e *InvalidConfigurationError) Error() string {
	if len(e.FieldErrors) == 0 {
		return ErrInvalidConfiguration.Error()
	}
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, fe := range e.FieldErrors {
		msgs = append(msgs, fe.Error())
	}
	return fmt.Sprintf("%s: %s", ErrInvalidConfiguration, strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfiguration for errors.Is() compatibility.
func (e *InvalidConfigurationError) Unwrap() error { return ErrInvalidConfiguration }

// Error implements the error interface.
func (e *NoModulesFoundError) Error() string {
	return fmt.Sprintf(
		"no benchmark modules found in %s (build mode %s, target %s); build the benchmark plugins into bin/%s/%s first",
		e.TuningDirectory, e.BuildMode, e.TargetIdentifier, e.BuildMode, e.TargetIdentifier,
	)
}

// Unwrap returns ErrNoModulesFound for errors.Is() compatibility.
func (e *NoModulesFoundError) Unwrap() error { return ErrNoModulesFound }

// String renders the diagnostic on one line.
func (d Diagnostic) String() string {
	var b strings.Builder
	b.WriteString(string(d.Severity))
	b.WriteString(": ")
	b.WriteString(d.Message)
	if d.Path != "" {
		b.WriteString(" (")
		b.WriteString(d.Path)
		b.WriteString(")")
	}
	if d.Cause != nil {
		b.WriteString(": ")
		b.WriteString(d.Cause.Error())
	}
	return b.String()
}

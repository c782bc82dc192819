// SPDX-License-Identifier: MPL-2.0

package bench

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// SuitesSymbol is the exported plugin symbol holding a module's suites.
const SuitesSymbol = "Suites"

var (
	// ErrInvalidSuite is the sentinel error wrapped by InvalidSuiteError.
	ErrInvalidSuite = errors.New("invalid benchmark suite")

	// ErrUnexpectedSymbol is returned when the Suites symbol has the wrong type.
	ErrUnexpectedSymbol = errors.New("unexpected suites symbol type")
)

type (
	// Benchmark is a single named benchmark function.
	Benchmark struct {
		Name string
		F    func(b *testing.B)
	}

	// Suite groups benchmarks that are reported together.
	Suite struct {
		Name string
		// Requires lists simple module names that must be resolvable by the
		// host before the suite runs.
		Requires   []string
		Benchmarks []Benchmark
	}

	// InvalidSuiteError collects every problem found in a suite definition.
	InvalidSuiteError struct {
		Suite       string
		FieldErrors []error
	}
)

// Error implements the error interface.
func (e *InvalidSuiteError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, fe := range e.FieldErrors {
		msgs = append(msgs, fe.Error())
	}
	return fmt.Sprintf("invalid suite %q: %s", e.Suite, strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidSuite for errors.Is() compatibility.
func (e *InvalidSuiteError) Unwrap() error { return ErrInvalidSuite }

// IsValid reports whether the suite has a name and only named, non-nil
// benchmarks with unique names.
func (s Suite) IsValid() (bool, []error) {
	var errs []error
	if strings.TrimSpace(s.Name) == "" {
		errs = append(errs, errors.New("suite name must not be empty"))
	}
	seen := make(map[string]struct{}, len(s.Benchmarks))
	for i, b := range s.Benchmarks {
		name := strings.TrimSpace(b.Name)
		if name == "" {
			errs = append(errs, fmt.Errorf("benchmark #%d has no name", i))
			continue
		}
		if b.F == nil {
			errs = append(errs, fmt.Errorf("benchmark %q has no function", name))
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			errs = append(errs, fmt.Errorf("benchmark %q is declared more than once", name))
		}
		seen[key] = struct{}{}
	}
	for _, r := range s.Requires {
		if strings.TrimSpace(r) == "" {
			errs = append(errs, errors.New("required module name must not be empty"))
		}
	}
	if len(errs) > 0 {
		return false, errs
	}
	return true, nil
}

// Validate returns an *InvalidSuiteError when IsValid fails.
func (s Suite) Validate() error {
	if ok, errs := s.IsValid(); !ok {
		return &InvalidSuiteError{Suite: s.Name, FieldErrors: errs}
	}
	return nil
}

// FromSymbol converts the value returned by plugin.Lookup(SuitesSymbol) into
// a suite slice. Both the exported variable form (*[]Suite) and an exported
// func() []Suite are accepted.
func FromSymbol(sym any) ([]Suite, error) {
	switch v := sym.(type) {
	case *[]Suite:
		if v == nil {
			return nil, nil
		}
		return *v, nil
	case []Suite:
		return v, nil
	case func() []Suite:
		return v(), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnexpectedSymbol, sym)
	}
}

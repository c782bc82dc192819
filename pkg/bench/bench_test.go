// SPDX-License-Identifier: MPL-2.0

package bench

import (
	"errors"
	"testing"
)

func noop(b *testing.B) {
	for b.Loop() {
	}
}

func TestSuiteValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		suite    Suite
		wantErrs int
	}{
		{
			name:  "valid",
			suite: Suite{Name: "ParserBenchmark", Benchmarks: []Benchmark{{Name: "Parse", F: noop}}},
		},
		{
			name:     "missing name",
			suite:    Suite{Benchmarks: []Benchmark{{Name: "Parse", F: noop}}},
			wantErrs: 1,
		},
		{
			name:     "nil function and duplicate",
			suite:    Suite{Name: "S", Benchmarks: []Benchmark{{Name: "A", F: noop}, {Name: "a"}}},
			wantErrs: 2,
		},
		{
			name:     "blank requirement",
			suite:    Suite{Name: "S", Requires: []string{" "}},
			wantErrs: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.suite.Validate()
			if tt.wantErrs == 0 {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidSuite) {
				t.Fatalf("Validate() = %v, want ErrInvalidSuite", err)
			}
			var suiteErr *InvalidSuiteError
			if !errors.As(err, &suiteErr) {
				t.Fatalf("error type = %T, want *InvalidSuiteError", err)
			}
			if len(suiteErr.FieldErrors) != tt.wantErrs {
				t.Errorf("FieldErrors = %v, want %d entries", suiteErr.FieldErrors, tt.wantErrs)
			}
		})
	}
}

func TestFromSymbol(t *testing.T) {
	t.Parallel()

	suites := []Suite{{Name: "A"}}

	for _, sym := range []any{&suites, suites, func() []Suite { return suites }} {
		got, err := FromSymbol(sym)
		if err != nil {
			t.Fatalf("FromSymbol(%T) error: %v", sym, err)
		}
		if len(got) != 1 || got[0].Name != "A" {
			t.Errorf("FromSymbol(%T) = %v", sym, got)
		}
	}

	if _, err := FromSymbol(42); !errors.Is(err, ErrUnexpectedSymbol) {
		t.Errorf("FromSymbol(int) error = %v, want ErrUnexpectedSymbol", err)
	}
}

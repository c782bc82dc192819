// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"errors"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		cfg        Config
		wantFields int
	}{
		{"minimal", Config{Root: "tuning"}, 0},
		{"plugin patterns", Config{Root: "tuning", Patterns: PluginPatterns("bin/Release/go1.25", "Benchmarks")}, 0},
		{"empty root", Config{}, 1},
		{"bad pattern", Config{Root: "t", Patterns: []string{"[oops"}}, 1},
		{"empty ignore", Config{Root: "t", Ignore: []string{""}}, 1},
		{"everything wrong", Config{Root: " ", Patterns: []string{""}, Ignore: []string{"[x"}, Debounce: -1}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.cfg.Validate()
			if tt.wantFields == 0 {
				if err != nil {
					t.Fatalf("Validate() = %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidWatchConfig) {
				t.Fatalf("Validate() = %v, want ErrInvalidWatchConfig", err)
			}
			var cfgErr *InvalidWatchConfigError
			if !errors.As(err, &cfgErr) || len(cfgErr.FieldErrors) != tt.wantFields {
				t.Errorf("field errors = %v, want %d", err, tt.wantFields)
			}
		})
	}
}

func TestMatcher(t *testing.T) {
	t.Parallel()

	m := newMatcher(Config{
		Root:     "tuning",
		Patterns: PluginPatterns(`bin\Release\go1.25`, "Benchmarks"),
		Ignore:   []string{"**/scratch/**"},
	})

	tests := []struct {
		rel  string
		want bool
	}{
		{"bin/Release/go1.25/Core.Benchmarks.so", true},
		{"svc/bin/release/GO1.25/Core.benchmarks.so", true},
		{"svc/bin/Release/go1.25/nested/Core.Benchmarks.so", true},
		{"bin/Debug/go1.25/Core.Benchmarks.so", false},
		{"bin/Release/go1.25/Core.so", false},
		{"bin/Release/go1.25/Core.Benchmarks.so.lock", false},
		{"scratch/bin/Release/go1.25/Core.Benchmarks.so", false},
		{".git/bin/Release/go1.25/Core.Benchmarks.so", false},
	}
	for _, tt := range tests {
		if got := m.wanted(tt.rel); got != tt.want {
			t.Errorf("wanted(%q) = %v, want %v", tt.rel, got, tt.want)
		}
	}
}

func TestBatchEmpty(t *testing.T) {
	t.Parallel()

	if !(Batch{}).Empty() {
		t.Error("zero Batch is not empty")
	}
	if (Batch{Removed: []string{"a"}}).Empty() {
		t.Error("Batch with removals reported empty")
	}
}

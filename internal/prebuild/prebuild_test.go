// SPDX-License-Identifier: MPL-2.0

package prebuild

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/benchtune/benchtune/internal/modhost"
)

func newTestBuilder(stdout *bytes.Buffer) *Builder {
	return New(
		WithOutput(stdout, stdout),
		WithHostEnv(func() []string { return []string{"HOME=/nowhere", "BENCHTUNE_TARGET=stale"} }),
	)
}

func TestRun_ExportsBuildEnvironment(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	dir := t.TempDir()
	tuning := filepath.Join(dir, "tuning")

	_, err := newTestBuilder(&out).Run(t.Context(), Request{
		Script:        `echo "$BENCHTUNE_BUILD_MODE|$BENCHTUNE_TARGET|$BENCHTUNE_MODULE_SUFFIX|$BENCHTUNE_OUTPUT_SEGMENT|$HOME|$EXTRA"`,
		WorkDir:       dir,
		BuildMode:     modhost.BuildModeRelease,
		Target:        "go1.25",
		TuningDir:     tuning,
		ModuleSuffix:  "Benchmarks",
		OutputSegment: filepath.Join("bin", "Release", "go1.25"),
		ExtraEnv:      map[string]string{"EXTRA": "x"},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := "Release|go1.25|Benchmarks|bin/Release/go1.25|/nowhere|x"
	if got := strings.TrimSpace(out.String()); got != want {
		t.Errorf("script output = %q, want %q", got, want)
	}
}

func TestRun_WritesIntoWorkDir(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	dir := t.TempDir()
	_, err := newTestBuilder(&out).Run(t.Context(), Request{
		Script:  "echo built > marker.txt",
		WorkDir: dir,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "marker.txt"))
	if err != nil {
		t.Fatalf("marker not written in work dir: %v", err)
	}
	if strings.TrimSpace(string(data)) != "built" {
		t.Errorf("marker = %q", data)
	}
}

func TestRun_NonZeroExit(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	_, err := newTestBuilder(&out).Run(t.Context(), Request{Script: "exit 3", WorkDir: t.TempDir()})

	var scriptErr *ScriptError
	if !errors.As(err, &scriptErr) {
		t.Fatalf("Run() = %v, want *ScriptError", err)
	}
	if scriptErr.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", scriptErr.ExitCode)
	}
	if !errors.Is(err, ErrScriptFailed) {
		t.Error("ScriptError does not wrap ErrScriptFailed")
	}
}

func TestRun_RejectsEmptyAndInvalidScripts(t *testing.T) {
	t.Parallel()

	b := newTestBuilder(&bytes.Buffer{})
	if _, err := b.Run(t.Context(), Request{Script: "  \n", WorkDir: t.TempDir()}); !errors.Is(err, ErrEmptyScript) {
		t.Errorf("Run(empty) = %v, want ErrEmptyScript", err)
	}
	if _, err := b.Run(t.Context(), Request{Script: "if then fi", WorkDir: t.TempDir()}); err == nil {
		t.Error("Run(invalid) succeeded")
	}
}

func TestRun_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := newTestBuilder(&bytes.Buffer{}).Run(ctx, Request{Script: "echo hi", WorkDir: t.TempDir()})
	if err == nil {
		t.Fatal("Run() succeeded with a canceled context")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		script  string
		wantErr bool
	}{
		{"simple", "go build ./...", false},
		{"multi line", "set -e\nfor d in a b; do echo $d; done", false},
		{"empty", "", true},
		{"unterminated quote", `echo "oops`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := Validate(tt.script); (err != nil) != tt.wantErr {
				t.Errorf("Validate(%q) error = %v, wantErr %v", tt.script, err, tt.wantErr)
			}
		})
	}
}

// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/benchtune/benchtune/internal/issue"

	"github.com/google/go-cmp/cmp"
)

func writeConfigFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// isolated returns options that never touch the real user config dir.
func isolated(t *testing.T) LoadOptions {
	t.Helper()
	return LoadOptions{ConfigDirPath: t.TempDir(), WorkDir: t.TempDir()}
}

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	t.Parallel()

	cfg, err := NewProvider().Load(t.Context(), isolated(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Source != "" {
		t.Errorf("Source = %q, want empty", cfg.Source)
	}

	want := DefaultConfig()
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_ExplicitFile(t *testing.T) {
	t.Parallel()

	path := writeConfigFile(t, t.TempDir(), "custom.cue", `
workspace: {
	tuning_folder: "perf"
	module_suffix: "Bench"
	build_mode: "release"
	skip_benchmarks_with_reports: true
}
engine: {
	exporters: ["json", "yaml"]
	count: 5
	bench_time: "1s"
	timeout: "2m"
}
ui: color_scheme: "dark"
`)

	opts := isolated(t)
	opts.ConfigFilePath = path
	cfg, err := NewProvider().Load(t.Context(), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Source != path {
		t.Errorf("Source = %q, want %q", cfg.Source, path)
	}
	if cfg.Workspace.TuningFolder != "perf" || cfg.Workspace.ModuleSuffix != "Bench" {
		t.Errorf("workspace = %+v", cfg.Workspace)
	}
	if cfg.Workspace.ReportsFolder != "reports" {
		t.Errorf("ReportsFolder = %q, want default kept", cfg.Workspace.ReportsFolder)
	}
	if cfg.Workspace.BuildMode != BuildModeRelease || !cfg.Workspace.SkipBenchmarksWithReports {
		t.Errorf("workspace = %+v", cfg.Workspace)
	}
	if diff := cmp.Diff([]string{"json", "yaml"}, cfg.Engine.Exporters); diff != "" {
		t.Errorf("Exporters mismatch (-want +got):\n%s", diff)
	}
	if cfg.Engine.Count != 5 || cfg.Engine.BenchTime != time.Second || cfg.Engine.Timeout != 2*time.Minute {
		t.Errorf("engine = %+v", cfg.Engine)
	}
	if cfg.UI.ColorScheme != ColorSchemeDark {
		t.Errorf("ColorScheme = %q", cfg.UI.ColorScheme)
	}
}

func TestLoad_ConfigDirThenWorkDir(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	local := writeConfigFile(t, opts.WorkDir, LocalConfigFileName, `engine: count: 7`)

	cfg, err := NewProvider().Load(t.Context(), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Source != local || cfg.Engine.Count != 7 {
		t.Fatalf("local config not used: source=%q count=%d", cfg.Source, cfg.Engine.Count)
	}

	user := writeConfigFile(t, opts.ConfigDirPath, ConfigFileName+"."+ConfigFileExt, `engine: count: 9`)
	cfg, err = NewProvider().Load(t.Context(), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Source != user || cfg.Engine.Count != 9 {
		t.Fatalf("user config should win: source=%q count=%d", cfg.Source, cfg.Engine.Count)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	opts.ConfigFilePath = filepath.Join(t.TempDir(), "nope.cue")

	_, err := NewProvider().Load(t.Context(), opts)
	if err == nil {
		t.Fatal("Load() succeeded for a missing file")
	}
	if got := issue.IssueOf(err); got == nil || got.Id() != issue.ConfigLoadFailedId {
		t.Errorf("IssueOf() = %v, want ConfigLoadFailedId", got)
	}
}

func TestLoad_RejectsBadFiles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantSub string
	}{
		{"syntax error", `engine: {count: `, "custom.cue"},
		{"schema violation", `engine: count: 0`, "count"},
		{"unknown exporter", `engine: exporters: ["csv"]`, "exporters"},
		{"unknown field", `workspace: flavor: "x"`, "flavor"},
		{"slash in suffix", `workspace: module_suffix: "a/b"`, "module_suffix"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := isolated(t)
			opts.ConfigFilePath = writeConfigFile(t, t.TempDir(), "custom.cue", tt.content)

			_, err := NewProvider().Load(t.Context(), opts)
			if err == nil {
				t.Fatal("Load() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestLoad_RejectsOversizedFile(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	opts.ConfigFilePath = writeConfigFile(t, t.TempDir(), "big.cue", "// "+strings.Repeat("x", MaxConfigFileSize))

	_, err := NewProvider().Load(t.Context(), opts)
	if !errors.Is(err, ErrConfigFileTooLarge) {
		t.Fatalf("Load() = %v, want ErrConfigFileTooLarge", err)
	}
}

func TestLoad_CanceledContext(t *testing.T) {
	t.Parallel()

	canceled, cancel := context.WithCancel(t.Context())
	cancel()

	if _, err := NewProvider().Load(canceled, isolated(t)); err == nil {
		t.Fatal("Load() succeeded with a canceled context")
	}
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	opts := isolated(t)
	opts.ConfigFilePath = writeConfigFile(t, t.TempDir(), "custom.cue", `engine: count: 4`)
	t.Setenv("BENCHTUNE_ENGINE_COUNT", "11")
	t.Setenv("BENCHTUNE_WORKSPACE_TUNING_FOLDER", "from-env")

	cfg, err := NewProvider().Load(t.Context(), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Engine.Count != 11 {
		t.Errorf("Count = %d, want 11", cfg.Engine.Count)
	}
	if cfg.Workspace.TuningFolder != "from-env" {
		t.Errorf("TuningFolder = %q, want from-env", cfg.Workspace.TuningFolder)
	}
}

func TestLoad_InvalidEnvironmentValue(t *testing.T) {
	t.Setenv("BENCHTUNE_WORKSPACE_BUILD_MODE", "fastest")

	_, err := NewProvider().Load(t.Context(), isolated(t))
	if !errors.Is(err, ErrInvalidBuildMode) {
		t.Fatalf("Load() = %v, want ErrInvalidBuildMode", err)
	}
	if got := issue.IssueOf(err); got == nil || got.Id() != issue.InvalidConfigurationId {
		t.Errorf("IssueOf() = %v, want InvalidConfigurationId", got)
	}
}

func TestGenerateCUE_RoundTrip(t *testing.T) {
	t.Parallel()

	want := DefaultConfig()
	want.Workspace.TargetIdentifier = "go1.25"
	want.Workspace.BuildScript = "go build -buildmode=plugin ./...\necho done"
	want.Engine.Exporters = []string{"github", "toml"}
	want.Engine.Timeout = 90 * time.Second
	want.UI.Verbose = true

	opts := isolated(t)
	opts.ConfigFilePath = writeConfigFile(t, t.TempDir(), "gen.cue", GenerateCUE(want))

	got, err := NewProvider().Load(t.Context(), opts)
	if err != nil {
		t.Fatalf("Load(GenerateCUE()) error = %v", err)
	}
	want.Source = opts.ConfigFilePath
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	SetConfigDirOverride(dir)
	t.Cleanup(Reset)

	path, err := CreateDefaultConfig(false)
	if err != nil {
		t.Fatalf("CreateDefaultConfig() error = %v", err)
	}
	if path != filepath.Join(dir, "config.cue") {
		t.Errorf("path = %q", path)
	}

	custom := DefaultConfig()
	custom.Engine.Count = 8
	if err := Save(custom); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := CreateDefaultConfig(false); err != nil {
		t.Fatalf("CreateDefaultConfig() error = %v", err)
	}
	cfg, err := NewProvider().Load(t.Context(), LoadOptions{WorkDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Engine.Count != 8 {
		t.Errorf("existing config overwritten without force: count=%d", cfg.Engine.Count)
	}

	if _, err := CreateDefaultConfig(true); err != nil {
		t.Fatalf("CreateDefaultConfig(force) error = %v", err)
	}
	cfg, err = NewProvider().Load(t.Context(), LoadOptions{WorkDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Engine.Count != DefaultConfig().Engine.Count {
		t.Errorf("force did not reset config: count=%d", cfg.Engine.Count)
	}
}

func TestDetectRepositoryPath(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	nested := filepath.Join(root, "tuning", "bin")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(root, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := DetectRepositoryPath(nested)
	if err != nil {
		t.Fatalf("DetectRepositoryPath() error = %v", err)
	}
	if got != root {
		t.Errorf("DetectRepositoryPath() = %q, want %q", got, root)
	}
}

func TestConfigValidation(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Engine.Count = 0
	cfg.Engine.Exporters = nil
	cfg.UI.ColorScheme = "neon"

	valid, errs := cfg.IsValid()
	if valid {
		t.Fatal("IsValid() = true")
	}
	var cfgErr *InvalidConfigError
	if !errors.As(errs[0], &cfgErr) {
		t.Fatalf("error type = %T", errs[0])
	}
	if !errors.Is(cfg.Validate(), ErrInvalidConfig) {
		t.Error("Validate() does not wrap ErrInvalidConfig")
	}
	// engine (one wrapped error) + color scheme
	if len(cfgErr.FieldErrors) != 2 {
		t.Errorf("FieldErrors = %v", cfgErr.FieldErrors)
	}
	if !DefaultConfig().Engine.HasExporter("GitHub") {
		t.Error("HasExporter should be case-insensitive")
	}
}

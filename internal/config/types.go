// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// BuildModeAuto follows the build flavor of the benchtune binary itself.
	BuildModeAuto BuildModeSetting = "auto"
	// BuildModeDebug selects plugins under bin/Debug.
	BuildModeDebug BuildModeSetting = "debug"
	// BuildModeRelease selects plugins under bin/Release.
	BuildModeRelease BuildModeSetting = "release"
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidBuildMode is returned when a BuildModeSetting value is not recognized.
	ErrInvalidBuildMode = errors.New("invalid build mode")
	// ErrInvalidEngineConfig is the sentinel error wrapped by InvalidEngineConfigError.
	ErrInvalidEngineConfig = errors.New("invalid engine config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorScheme sets the terminal color scheme.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// BuildModeSetting selects which build flavor of plugins to run.
	BuildModeSetting string

	// InvalidBuildModeError is returned when a BuildModeSetting value is not recognized.
	InvalidBuildModeError struct {
		Value BuildModeSetting
	}

	// InvalidEngineConfigError collects EngineConfig field errors.
	InvalidEngineConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError collects every Config field error.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config is the root configuration.
	Config struct {
		Workspace WorkspaceConfig `json:"workspace" mapstructure:"workspace"`
		Engine    EngineConfig    `json:"engine" mapstructure:"engine"`
		UI        UIConfig        `json:"ui" mapstructure:"ui"`

		// Source is the file the configuration was read from, empty for
		// pure defaults.
		Source string `json:"-" mapstructure:"-"`
	}

	// WorkspaceConfig configures discovery and report archiving.
	WorkspaceConfig struct {
		// RepositoryPath is the repository root; empty means auto-detect.
		RepositoryPath string `json:"repository_path" mapstructure:"repository_path"`
		TuningFolder   string `json:"tuning_folder" mapstructure:"tuning_folder"`
		ReportsFolder  string `json:"reports_folder" mapstructure:"reports_folder"`
		ModuleSuffix   string `json:"module_suffix" mapstructure:"module_suffix"`
		// TargetIdentifier is the build target directory; empty means the
		// running toolchain's language version.
		TargetIdentifier string           `json:"target_identifier" mapstructure:"target_identifier"`
		BuildMode        BuildModeSetting `json:"build_mode" mapstructure:"build_mode"`
		// ArtifactsPath overrides <repository>/<reports_folder> when set.
		ArtifactsPath             string `json:"artifacts_path" mapstructure:"artifacts_path"`
		SkipBenchmarksWithReports bool   `json:"skip_benchmarks_with_reports" mapstructure:"skip_benchmarks_with_reports"`
		// BuildScript is a shell script, run by 'benchtune build', that
		// produces the plugins.
		BuildScript string `json:"build_script" mapstructure:"build_script"`
	}

	// EngineConfig configures the benchmark engine.
	EngineConfig struct {
		Exporters []string      `json:"exporters" mapstructure:"exporters"`
		Count     int           `json:"count" mapstructure:"count"`
		BenchTime time.Duration `json:"bench_time" mapstructure:"bench_time"`
		Timeout   time.Duration `json:"timeout" mapstructure:"timeout"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		Verbose     bool        `json:"verbose" mapstructure:"verbose"`
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
	}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Workspace: WorkspaceConfig{
			TuningFolder:  "tuning",
			ReportsFolder: "reports",
			ModuleSuffix:  "Benchmarks",
			BuildMode:     BuildModeAuto,
		},
		Engine: EngineConfig{
			Exporters: []string{"github"},
			Count:     3,
			BenchTime: 250 * time.Millisecond,
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
	}
}

// String returns the string representation of the ColorScheme.
func (c ColorScheme) String() string { return string(c) }

// IsValid returns whether the ColorScheme is one of the defined schemes.
func (c ColorScheme) IsValid() (bool, []error) {
	switch c {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: c}}
	}
}

// Error implements the error interface for InvalidColorSchemeError.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns ErrInvalidColorScheme for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// String returns the string representation of the BuildModeSetting.
func (m BuildModeSetting) String() string { return string(m) }

// IsValid returns whether the BuildModeSetting is one of the defined modes.
func (m BuildModeSetting) IsValid() (bool, []error) {
	switch m {
	case BuildModeAuto, BuildModeDebug, BuildModeRelease:
		return true, nil
	default:
		return false, []error{&InvalidBuildModeError{Value: m}}
	}
}

// Error implements the error interface for InvalidBuildModeError.
func (e *InvalidBuildModeError) Error() string {
	return fmt.Sprintf("invalid build mode %q (valid: auto, debug, release)", e.Value)
}

// Unwrap returns ErrInvalidBuildMode for errors.Is() compatibility.
func (e *InvalidBuildModeError) Unwrap() error { return ErrInvalidBuildMode }

// IsValid returns whether the EngineConfig has valid fields.
func (c EngineConfig) IsValid() (bool, []error) {
	var errs []error
	if len(c.Exporters) == 0 {
		errs = append(errs, errors.New("engine.exporters must not be empty"))
	}
	for _, name := range c.Exporters {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, errors.New("engine.exporters contains an empty name"))
		}
	}
	if c.Count < 1 {
		errs = append(errs, fmt.Errorf("engine.count must be at least 1, got %d", c.Count))
	}
	if c.BenchTime <= 0 {
		errs = append(errs, fmt.Errorf("engine.bench_time must be positive, got %s", c.BenchTime))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("engine.timeout must not be negative, got %s", c.Timeout))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidEngineConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidEngineConfigError.
func (e *InvalidEngineConfigError) Error() string {
	return joinFieldErrors(ErrInvalidEngineConfig, e.FieldErrors)
}

// Unwrap returns ErrInvalidEngineConfig followed by the field errors.
func (e *InvalidEngineConfigError) Unwrap() []error {
	return append([]error{ErrInvalidEngineConfig}, e.FieldErrors...)
}

// IsValid returns whether the Config has valid fields. Workspace folder
// names are validated again when the workspace is built.
func (c *Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Workspace.BuildMode.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if strings.ContainsAny(c.Workspace.ModuleSuffix, `/\`) {
		errs = append(errs, fmt.Errorf("workspace.module_suffix %q must not contain path separators", c.Workspace.ModuleSuffix))
	}
	if valid, fieldErrs := c.Engine.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.UI.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Validate returns the first IsValid error, an *InvalidConfigError.
func (c *Config) Validate() error {
	if valid, errs := c.IsValid(); !valid {
		return errs[0]
	}
	return nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return joinFieldErrors(ErrInvalidConfig, e.FieldErrors)
}

// Unwrap returns ErrInvalidConfig followed by the field errors, so
// errors.Is matches both the sentinel and each field's own sentinel.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// HasExporter reports whether name is among the configured exporters.
func (c EngineConfig) HasExporter(name string) bool {
	return slices.ContainsFunc(c.Exporters, func(e string) bool { return strings.EqualFold(e, name) })
}

func joinFieldErrors(sentinel error, errs []error) string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return fmt.Sprintf("%s: %s", sentinel, strings.Join(msgs, "; "))
}

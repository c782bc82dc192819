// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/benchtune/benchtune/internal/issue"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "benchtune"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// LocalConfigFileName is the repository-local config file, looked up in
	// the working directory when no user config exists.
	LocalConfigFileName = AppName + "." + ConfigFileExt
	// EnvPrefix prefixes environment overrides, e.g. BENCHTUNE_ENGINE_COUNT.
	EnvPrefix = "BENCHTUNE"

	// MaxConfigFileSize bounds config files read from disk.
	MaxConfigFileSize = 1 << 20
)

// ErrConfigFileTooLarge is returned when a config file exceeds MaxConfigFileSize.
var ErrConfigFileTooLarge = errors.New("config file too large")

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the benchtune configuration directory using
// platform-specific conventions: Windows uses %APPDATA%, macOS uses
// ~/Library/Application Support, and Linux/others use $XDG_CONFIG_HOME
// (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// loadWithOptions performs option-driven config loading. Precedence, lowest
// first: defaults, config file, BENCHTUNE_* environment variables.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	resolvedPath, err := resolveConfigFile(opts)
	if err != nil {
		return nil, err
	}
	if resolvedPath != "" {
		if err := loadCUEIntoViper(v, resolvedPath); err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(resolvedPath).
				WithIssue(issue.ConfigLoadFailedId).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("Run 'benchtune config show' to see the effective configuration").
				Wrap(err).
				BuildError()
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("parse configuration").
			WithResource(resolvedPath).
			WithIssue(issue.ConfigLoadFailedId).
			WithSuggestion("Check BENCHTUNE_* environment variables for malformed values").
			Wrap(fmt.Errorf("failed to parse config: %w", err)).
			BuildError()
	}
	cfg.Source = resolvedPath

	if err := cfg.Validate(); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithIssue(issue.InvalidConfigurationId).
			WithSuggestion("Fix the fields listed above").
			Wrap(err).
			BuildError()
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, defaults *Config) {
	v.SetDefault("workspace.repository_path", defaults.Workspace.RepositoryPath)
	v.SetDefault("workspace.tuning_folder", defaults.Workspace.TuningFolder)
	v.SetDefault("workspace.reports_folder", defaults.Workspace.ReportsFolder)
	v.SetDefault("workspace.module_suffix", defaults.Workspace.ModuleSuffix)
	v.SetDefault("workspace.target_identifier", defaults.Workspace.TargetIdentifier)
	v.SetDefault("workspace.build_mode", string(defaults.Workspace.BuildMode))
	v.SetDefault("workspace.artifacts_path", defaults.Workspace.ArtifactsPath)
	v.SetDefault("workspace.skip_benchmarks_with_reports", defaults.Workspace.SkipBenchmarksWithReports)
	v.SetDefault("workspace.build_script", defaults.Workspace.BuildScript)
	v.SetDefault("engine.exporters", defaults.Engine.Exporters)
	v.SetDefault("engine.count", defaults.Engine.Count)
	v.SetDefault("engine.bench_time", defaults.Engine.BenchTime)
	v.SetDefault("engine.timeout", defaults.Engine.Timeout)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)
	v.SetDefault("ui.color_scheme", string(defaults.UI.ColorScheme))
}

// resolveConfigFile picks the config file to load. An explicit path must
// exist; otherwise the user config dir is tried, then the working directory.
// An empty result means defaults only.
func resolveConfigFile(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithIssue(issue.ConfigLoadFailedId).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'benchtune config init' to create a default configuration").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
	if err != nil {
		return "", err
	}
	if cuePath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt); fileExists(cuePath) {
		return cuePath, nil
	}

	localPath := LocalConfigFileName
	if opts.WorkDir != "" {
		localPath = filepath.Join(opts.WorkDir, LocalConfigFileName)
	}
	if fileExists(localPath) {
		return localPath, nil
	}
	return "", nil
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}
	return ConfigDir()
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if len(data) > MaxConfigFileSize {
		return fmt.Errorf("%w: %s is %d bytes (limit %d)", ErrConfigFileTooLarge, path, len(data), MaxConfigFileSize)
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return formatCUEError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return formatCUEError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return formatCUEError(err, path)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// formatCUEError flattens a CUE error list into one line per problem.
func formatCUEError(err error, path string) error {
	details := strings.TrimSpace(cueerrors.Details(err, nil))
	if details == "" {
		return fmt.Errorf("%s: %w", path, err)
	}
	return fmt.Errorf("%s: invalid configuration:\n%s", path, details)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes a default config file into the config
// directory and returns its path. An existing file is left untouched unless
// force is set.
func CreateDefaultConfig(force bool) (string, error) {
	cfgDir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return CreateDefaultConfigIn(cfgDir, force)
}

// CreateDefaultConfigIn is CreateDefaultConfig for an explicit directory.
func CreateDefaultConfigIn(cfgDir string, force bool) (string, error) {
	cfgPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)

	if !force && fileExists(cfgPath) {
		return cfgPath, nil
	}
	if err := writeConfig(cfgPath, DefaultConfig()); err != nil {
		return "", err
	}
	return cfgPath, nil
}

// Save writes cfg to the config directory.
func Save(cfg *Config) error {
	cfgDir, err := ConfigDir()
	if err != nil {
		return err
	}
	return writeConfig(filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt), cfg)
}

func writeConfig(cfgPath string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(cfgPath, []byte(GenerateCUE(cfg)), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateCUE generates a CUE representation of the configuration. Empty
// optional strings are omitted so the schema's non-empty constraints hold.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// benchtune configuration file\n\n")

	sb.WriteString("workspace: {\n")
	writeOptionalString(&sb, "repository_path", cfg.Workspace.RepositoryPath)
	writeOptionalString(&sb, "tuning_folder", cfg.Workspace.TuningFolder)
	writeOptionalString(&sb, "reports_folder", cfg.Workspace.ReportsFolder)
	writeOptionalString(&sb, "module_suffix", cfg.Workspace.ModuleSuffix)
	writeOptionalString(&sb, "target_identifier", cfg.Workspace.TargetIdentifier)
	writeOptionalString(&sb, "build_mode", string(cfg.Workspace.BuildMode))
	writeOptionalString(&sb, "artifacts_path", cfg.Workspace.ArtifactsPath)
	fmt.Fprintf(&sb, "\tskip_benchmarks_with_reports: %v\n", cfg.Workspace.SkipBenchmarksWithReports)
	if cfg.Workspace.BuildScript != "" {
		fmt.Fprintf(&sb, "\tbuild_script: %q\n", cfg.Workspace.BuildScript)
	}
	sb.WriteString("}\n")

	sb.WriteString("\nengine: {\n")
	quoted := make([]string, 0, len(cfg.Engine.Exporters))
	for _, name := range cfg.Engine.Exporters {
		quoted = append(quoted, fmt.Sprintf("%q", name))
	}
	fmt.Fprintf(&sb, "\texporters: [%s]\n", strings.Join(quoted, ", "))
	fmt.Fprintf(&sb, "\tcount: %d\n", cfg.Engine.Count)
	if cfg.Engine.BenchTime > 0 {
		fmt.Fprintf(&sb, "\tbench_time: %q\n", cfg.Engine.BenchTime.String())
	}
	if cfg.Engine.Timeout > 0 {
		fmt.Fprintf(&sb, "\ttimeout: %q\n", cfg.Engine.Timeout.String())
	}
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	writeOptionalString(&sb, "color_scheme", string(cfg.UI.ColorScheme))
	sb.WriteString("}\n")

	return sb.String()
}

func writeOptionalString(sb *strings.Builder, key, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(sb, "\t%s: %q\n", key, value)
}

// DetectRepositoryPath walks up from start until it finds a directory
// containing .git. It returns start itself when no repository is found.
func DetectRepositoryPath(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", start, err)
	}
	for dir := abs; ; {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs, nil
		}
		dir = parent
	}
}

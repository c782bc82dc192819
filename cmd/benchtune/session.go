// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/benchtune/benchtune/internal/config"
	"github.com/benchtune/benchtune/internal/engine"
	"github.com/benchtune/benchtune/internal/issue"
	"github.com/benchtune/benchtune/internal/modhost"
	"github.com/benchtune/benchtune/internal/workspace"
	"github.com/benchtune/benchtune/pkg/types"
)

// session is the per-invocation state shared by subcommands: effective
// configuration, logger and workspace.
type session struct {
	cfg     *config.Config
	verbose bool
	logger  *slog.Logger
	ws      workspace.Service
}

// loadConfig loads the configuration honoring --config.
func (app *App) loadConfig(ctx context.Context, flags *rootFlagValues) (*config.Config, string, error) {
	wd, err := app.getwd()
	if err != nil {
		return nil, "", fmt.Errorf("determine working directory: %w", err)
	}
	cfg, err := app.Config.Load(ctx, config.LoadOptions{
		ConfigFilePath: flags.configPath,
		ConfigDirPath:  app.configDir,
		WorkDir:        wd,
	})
	if err != nil {
		return nil, wd, err
	}
	return cfg, wd, nil
}

// newSession loads configuration and builds the workspace. mutate applies
// command-line overrides to the workspace options before validation.
func (app *App) newSession(ctx context.Context, flags *rootFlagValues, mutate func(*workspace.Options)) (*session, error) {
	cfg, wd, err := app.loadConfig(ctx, flags)
	if err != nil {
		return nil, err
	}

	verbose := flags.verbose || cfg.UI.Verbose
	logger := newLogger(app.stderr, verbose)

	opts, err := workspaceOptions(cfg, wd, app.detectBuildMode)
	if err != nil {
		return nil, err
	}
	if mutate != nil {
		mutate(&opts)
	}

	ws, err := workspace.New(opts,
		workspace.WithRuntime(app.Runtime),
		workspace.WithResolver(app.Resolver),
		workspace.WithLogger(logger),
	)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("configure workspace").
			WithResource(cfg.Source).
			WithIssue(issue.InvalidConfigurationId).
			WithSuggestion("Run 'benchtune config show' to inspect the effective settings").
			Wrap(err).
			BuildError()
	}

	logger.Debug("workspace ready",
		"repository", ws.Options().RepositoryPath,
		"tuning", workspace.TuningDirectory(ws.Options()),
		"segment", workspace.BuildOutputSegment(ws.Options()),
		"config", cfg.Source)
	return &session{cfg: cfg, verbose: verbose, logger: logger, ws: ws}, nil
}

// workspaceOptions maps the configuration onto workspace options. An empty
// repository path is detected from wd; a relative one is rooted at wd.
func workspaceOptions(cfg *config.Config, wd string, detect func() modhost.BuildMode) (workspace.Options, error) {
	repo := cfg.Workspace.RepositoryPath
	switch {
	case repo == "":
		detected, err := config.DetectRepositoryPath(wd)
		if err != nil {
			return workspace.Options{}, err
		}
		repo = detected
	case !filepath.IsAbs(repo):
		repo = filepath.Join(wd, repo)
	}

	opts := workspace.DefaultOptions(repo)
	opts.TuningFolder = workspace.FolderName(cfg.Workspace.TuningFolder)
	opts.ReportsFolder = workspace.FolderName(cfg.Workspace.ReportsFolder)
	opts.ModuleSuffix = workspace.ModuleSuffix(cfg.Workspace.ModuleSuffix)
	if cfg.Workspace.TargetIdentifier != "" {
		opts.TargetIdentifier = workspace.TargetIdentifier(cfg.Workspace.TargetIdentifier)
	}
	opts.AllowDebugBuild = allowDebugBuild(cfg.Workspace.BuildMode, detect)
	opts.ArtifactsPath = types.FilesystemPath(cfg.Workspace.ArtifactsPath)
	opts.SkipBenchmarksWithReports = cfg.Workspace.SkipBenchmarksWithReports
	return opts, nil
}

func allowDebugBuild(mode config.BuildModeSetting, detect func() modhost.BuildMode) bool {
	switch mode {
	case config.BuildModeDebug:
		return true
	case config.BuildModeRelease:
		return false
	default:
		return detect() == modhost.BuildModeDebug
	}
}

// engineConfig derives the engine configuration for the session workspace.
func (s *session) engineConfig() engine.Config {
	opts := s.ws.Options()
	return engine.Config{
		ResultsPath: s.ws.ResultsPath(),
		Exporters:   s.cfg.Engine.Exporters,
		Count:       s.cfg.Engine.Count,
		BenchTime:   s.cfg.Engine.BenchTime,
		Timeout:     s.cfg.Engine.Timeout,
		BuildMode:   opts.BuildMode().String(),
		Target:      opts.TargetIdentifier.String(),
	}
}

// glamourStyle maps the configured color scheme to a glamour style name.
func glamourStyle(cfg *config.Config) string {
	if cfg == nil {
		return "auto"
	}
	switch cfg.UI.ColorScheme {
	case config.ColorSchemeDark:
		return "dark"
	case config.ColorSchemeLight:
		return "light"
	default:
		return "auto"
	}
}

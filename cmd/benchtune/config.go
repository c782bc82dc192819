// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/benchtune/benchtune/internal/config"

	"github.com/spf13/cobra"
)

func newConfigCommand(app *App, root *rootFlagValues) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage benchtune configuration",
		Long: `Manage benchtune configuration.

Configuration is read from, in order of increasing precedence: built-in
defaults, the first config file found (--config, then config.cue in the
user configuration directory, then benchtune.cue in the working
directory), and BENCHTUNE_* environment variables such as
BENCHTUNE_ENGINE_COUNT.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.showConfig(cmd.Context(), root)
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Print the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := app.loadConfig(cmd.Context(), root)
			if err != nil {
				return app.fail(err, root.verbose, "auto")
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the user configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			dir, err := app.userConfigDir()
			if err != nil {
				return app.fail(err, root.verbose, "auto")
			}
			fmt.Fprintln(app.stdout, userConfigFile(dir))
			return nil
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			dir, err := app.userConfigDir()
			if err != nil {
				return app.fail(err, root.verbose, "auto")
			}
			path, err := config.CreateDefaultConfigIn(dir, force)
			if err != nil {
				return app.fail(err, root.verbose, "auto")
			}
			fmt.Fprintf(app.stdout, "%s Configuration at %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing configuration file")
	configCmd.AddCommand(initCmd)

	return configCmd
}

func (app *App) userConfigDir() (string, error) {
	if app.configDir != "" {
		return app.configDir, nil
	}
	return config.ConfigDir()
}

func userConfigFile(dir string) string {
	return filepath.Join(dir, config.ConfigFileName+"."+config.ConfigFileExt)
}

func (app *App) showConfig(ctx context.Context, root *rootFlagValues) error {
	cfg, _, err := app.loadConfig(ctx, root)
	if err != nil {
		return app.fail(err, root.verbose, "auto")
	}

	source := cfg.Source
	if source == "" {
		source = "(defaults)"
	}
	w := app.stdout
	fmt.Fprintln(w, TitleStyle.Render("Configuration"))
	fmt.Fprintf(w, "%s %s\n\n", SubtitleStyle.Render("source:"), source)

	section := func(name string, rows [][2]string) {
		fmt.Fprintln(w, CmdStyle.Render(name))
		for _, r := range rows {
			fmt.Fprintf(w, "  %-30s %s\n", r[0], r[1])
		}
		fmt.Fprintln(w)
	}

	ws := cfg.Workspace
	section("workspace", [][2]string{
		{"repository_path", orDetected(ws.RepositoryPath)},
		{"tuning_folder", ws.TuningFolder},
		{"reports_folder", ws.ReportsFolder},
		{"module_suffix", ws.ModuleSuffix},
		{"target_identifier", orDetected(ws.TargetIdentifier)},
		{"build_mode", ws.BuildMode.String()},
		{"artifacts_path", orDetected(ws.ArtifactsPath)},
		{"skip_benchmarks_with_reports", strconv.FormatBool(ws.SkipBenchmarksWithReports)},
		{"build_script", orUnset(ws.BuildScript)},
	})
	section("engine", [][2]string{
		{"exporters", strings.Join(cfg.Engine.Exporters, ", ")},
		{"count", strconv.Itoa(cfg.Engine.Count)},
		{"bench_time", cfg.Engine.BenchTime.String()},
		{"timeout", cfg.Engine.Timeout.String()},
	})
	section("ui", [][2]string{
		{"verbose", strconv.FormatBool(cfg.UI.Verbose)},
		{"color_scheme", cfg.UI.ColorScheme.String()},
	})
	return nil
}

func orDetected(v string) string {
	if v == "" {
		return SubtitleStyle.Render("(detected)")
	}
	return v
}

func orUnset(v string) string {
	if v == "" {
		return SubtitleStyle.Render("(unset)")
	}
	if first, _, multi := strings.Cut(strings.TrimSpace(v), "\n"); multi {
		return first + " " + SubtitleStyle.Render("…")
	}
	return v
}

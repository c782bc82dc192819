// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for benchtune.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/benchtune/benchtune/pkg/types"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootFlagValues holds the persistent flags shared by every subcommand.
type rootFlagValues struct {
	verbose    bool
	configPath string
}

// NewRootCommand builds the command tree bound to app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlagValues{}

	rootCmd := &cobra.Command{
		Use:   "benchtune",
		Short: "Discover and run Go plugin benchmarks",
		Long: TitleStyle.Render("benchtune") + SubtitleStyle.Render(" - Discover and run Go plugin benchmarks") + `

benchtune finds benchmark plugins built into the tuning tree of a repository,
runs the suites they export and archives one report per suite next to the
reports of earlier runs.

Plugins are selected by name (*.<module_suffix>.so), build mode
(bin/Release or bin/Debug) and target (the Go toolchain, e.g. go1.25).

` + SubtitleStyle.Render("Examples:") + `
  benchtune run                    Run every discovered suite
  benchtune run 'Parser.**'        Run only benchmarks matching a glob
  benchtune run --build --watch    Build, run, and rerun on plugin changes
  benchtune list                   Show modules, suites and benchmarks
  benchtune reports show Parser    Render an archived report`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default is $HOME/.config/benchtune/config.cue)")

	rootCmd.AddCommand(
		newRunCommand(app, flags),
		newListCommand(app, flags),
		newBuildCommand(app, flags),
		newReportsCommand(app, flags),
		newConfigCommand(app, flags),
	)
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits the process with the command's exit code.
// This is called by main.main().
func Execute() {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+err.Error())
		os.Exit(int(types.ExitFailure))
	}

	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(int(processExitCode(err)))
	}
}

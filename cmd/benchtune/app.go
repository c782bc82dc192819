// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"
	"os/exec"

	"github.com/benchtune/benchtune/internal/config"
	"github.com/benchtune/benchtune/internal/engine"
	"github.com/benchtune/benchtune/internal/modhost"
	"github.com/benchtune/benchtune/internal/prebuild"
	"github.com/benchtune/benchtune/internal/workspace"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer; every Cobra handler receives an App and
	// delegates through it.
	App struct {
		Config   ConfigProvider
		Runtime  modhost.Runtime
		Resolver *workspace.FallbackResolver
		// Builder runs build scripts; nil builds a prebuild.Builder per call.
		Builder BuildRunner

		engineOptions   []engine.Option
		configDir       string
		getwd           func() (string, error)
		detectBuildMode func() modhost.BuildMode
		rerun           func(ctx context.Context, args []string) error
		stdout          io.Writer
		stderr          io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config   ConfigProvider
		Runtime  modhost.Runtime
		Resolver *workspace.FallbackResolver
		Builder  BuildRunner
		// EngineOptions are appended to the engine's own options.
		EngineOptions []engine.Option
		// ConfigDir overrides the user configuration directory.
		ConfigDir string
		// Getwd defaults to os.Getwd.
		Getwd func() (string, error)
		// DetectBuildMode resolves build_mode "auto"; defaults to
		// modhost.DetectBuildMode.
		DetectBuildMode func() modhost.BuildMode
		// Rerun executes one watch-mode rerun; defaults to re-executing the
		// benchtune binary.
		Rerun  func(ctx context.Context, args []string) error
		Stdout io.Writer
		Stderr io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// BuildRunner runs the build script that produces benchmark plugins.
	BuildRunner interface {
		Run(ctx context.Context, req prebuild.Request) (prebuild.Result, error)
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Runtime == nil {
		deps.Runtime = modhost.Default()
	}
	if deps.Resolver == nil {
		deps.Resolver = workspace.DefaultResolver()
	}
	if deps.Getwd == nil {
		deps.Getwd = os.Getwd
	}
	if deps.DetectBuildMode == nil {
		deps.DetectBuildMode = modhost.DetectBuildMode
	}

	app := &App{
		Config:          deps.Config,
		Runtime:         deps.Runtime,
		Resolver:        deps.Resolver,
		Builder:         deps.Builder,
		engineOptions:   deps.EngineOptions,
		configDir:       deps.ConfigDir,
		getwd:           deps.Getwd,
		detectBuildMode: deps.DetectBuildMode,
		rerun:           deps.Rerun,
		stdout:          deps.Stdout,
		stderr:          deps.Stderr,
	}
	if app.rerun == nil {
		app.rerun = app.execSelf
	}
	return app, nil
}

// execSelf runs the benchtune binary with args in a child process. Go
// plugins cannot be unloaded, so reruns after a rebuild need a fresh process
// to pick up the new code.
func (app *App) execSelf(ctx context.Context, args []string) error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	child := exec.CommandContext(ctx, exe, args...)
	child.Stdout = app.stdout
	child.Stderr = app.stderr
	child.Stdin = os.Stdin
	return child.Run()
}

// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benchtune/benchtune/internal/issue"
	"github.com/benchtune/benchtune/internal/prebuild"
	"github.com/benchtune/benchtune/internal/workspace"

	"github.com/spf13/cobra"
)

func newBuildCommand(app *App, root *rootFlagValues) *cobra.Command {
	var debugBuild bool

	buildCmd := &cobra.Command{
		Use:   "build",
		Short: "Run the configured build script to produce benchmark plugins",
		Long: `Run workspace.build_script with the shell interpreter built into benchtune.

The script runs in the repository root and sees these variables:
  BENCHTUNE_BUILD_MODE      Release or Debug
  BENCHTUNE_TARGET          target identifier, e.g. go1.25
  BENCHTUNE_TUNING_DIR      absolute tuning directory
  BENCHTUNE_MODULE_SUFFIX   plugin name suffix, e.g. Benchmarks
  BENCHTUNE_OUTPUT_SEGMENT  bin/<mode>/<target>
  BENCHTUNE_OUTPUT_DIR      <tuning dir>/bin/<mode>/<target>`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := app.newSession(cmd.Context(), root, func(opts *workspace.Options) {
				if debugBuild {
					opts.AllowDebugBuild = true
				}
			})
			if err != nil {
				return app.fail(err, root.verbose, "auto")
			}
			return app.fail(app.build(cmd.Context(), s), s.verbose, glamourStyle(s.cfg))
		},
	}
	buildCmd.Flags().BoolVar(&debugBuild, "debug-build", false, "build into bin/Debug")
	return buildCmd
}

// build runs the session's build script.
func (app *App) build(ctx context.Context, s *session) error {
	script := s.cfg.Workspace.BuildScript
	if err := prebuild.Validate(script); err != nil {
		ec := issue.NewErrorContext().
			WithOperation("build benchmark plugins").
			WithResource(s.cfg.Source).
			WithIssue(issue.BuildScriptFailedId)
		if errors.Is(err, prebuild.ErrEmptyScript) {
			ec.WithSuggestion("Set workspace.build_script in your configuration")
		}
		return ec.Wrap(err).BuildError()
	}

	opts := s.ws.Options()
	req := prebuild.Request{
		Script:        script,
		WorkDir:       opts.RepositoryPath.String(),
		BuildMode:     opts.BuildMode(),
		Target:        opts.TargetIdentifier.String(),
		TuningDir:     workspace.TuningDirectory(opts),
		ModuleSuffix:  opts.ModuleSuffix.String(),
		OutputSegment: workspace.BuildOutputSegment(opts),
	}

	runner := app.Builder
	if runner == nil {
		runner = prebuild.New(prebuild.WithOutput(app.stdout, app.stderr), prebuild.WithLogger(s.logger))
	}

	fmt.Fprintf(app.stdout, "%s Building plugins into %s\n", CmdStyle.Render("→"),
		SubtitleStyle.Render(workspace.BuildOutputSegment(opts)))
	res, err := runner.Run(ctx, req)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("build benchmark plugins").
			WithIssue(issue.BuildScriptFailedId).
			WithSuggestion("Rerun with --verbose to see the build environment").
			Wrap(err).
			BuildError()
	}
	fmt.Fprintf(app.stdout, "%s Build finished in %s\n", SuccessStyle.Render("✓"), res.Elapsed.Round(time.Millisecond))
	return nil
}

// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/benchtune/benchtune/internal/engine"
	"github.com/benchtune/benchtune/internal/issue"
	"github.com/benchtune/benchtune/internal/modhost"
	"github.com/benchtune/benchtune/internal/workspace"

	"github.com/spf13/cobra"
)

// runFlagValues holds the flags of 'benchtune run'. Only flags that were
// set on the command line override the configuration.
type runFlagValues struct {
	build        bool
	watch        bool
	debugBuild   bool
	releaseBuild bool
	skipReported bool
	exporters    []string
	count        int
	benchTime    time.Duration
	timeout      time.Duration

	changed func(name string) bool
}

func newRunCommand(app *App, root *rootFlagValues) *cobra.Command {
	flags := &runFlagValues{}

	runCmd := &cobra.Command{
		Use:   "run [filter...]",
		Short: "Run benchmark suites and archive their reports",
		Long: `Discover benchmark plugins, run the suites they export and archive the
reports under <reports>/<tuning>.

Filters select benchmarks by "module.suite.benchmark". A filter with glob
syntax (*, ?, [..], {..}) is matched as a doublestar pattern, anything else
as a case-insensitive substring. Without filters every benchmark runs.`,
		Example: `  benchtune run
  benchtune run 'Parser.Benchmarks.**'
  benchtune run --exporter json --exporter github --count 5 Tokenize`,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.changed = cmd.Flags().Changed
			return app.runCommand(cmd.Context(), root, flags, args)
		},
	}

	f := runCmd.Flags()
	f.BoolVar(&flags.build, "build", false, "run the configured build script before benchmarking")
	f.BoolVarP(&flags.watch, "watch", "w", false, "rerun whenever plugins under the tuning directory change")
	f.BoolVar(&flags.debugBuild, "debug-build", false, "benchmark plugins under bin/Debug")
	f.BoolVar(&flags.releaseBuild, "release-build", false, "benchmark plugins under bin/Release")
	f.BoolVar(&flags.skipReported, "skip-reported", false, "skip suites that already have an archived report")
	f.StringSliceVarP(&flags.exporters, "exporter", "e", nil, "report format: github, json, toml, yaml (repeatable)")
	f.IntVarP(&flags.count, "count", "n", engine.DefaultCount, "repeats per benchmark")
	f.DurationVar(&flags.benchTime, "bench-time", engine.DefaultBenchTime, "target duration of one repeat")
	f.DurationVar(&flags.timeout, "timeout", 0, "abort the run after this duration (0 disables)")
	runCmd.MarkFlagsMutuallyExclusive("debug-build", "release-build")

	return runCmd
}

func (app *App) runCommand(ctx context.Context, root *rootFlagValues, flags *runFlagValues, filters []string) error {
	s, err := app.newSession(ctx, root, flags.applyWorkspace)
	if err != nil {
		return app.fail(err, root.verbose, "auto")
	}
	flags.applyEngine(s)

	if flags.build {
		if err := app.build(ctx, s); err != nil {
			return app.fail(err, s.verbose, glamourStyle(s.cfg))
		}
	}

	runErr := app.runOnce(ctx, s, filters)
	if !flags.watch {
		return app.fail(runErr, s.verbose, glamourStyle(s.cfg))
	}
	if runErr != nil {
		fmt.Fprintln(app.stderr, WarningStyle.Render(formatErrorForDisplay(runErr, s.verbose)))
	}
	return app.fail(app.watchAndRerun(ctx, s, childRunArgs(root, flags, filters)), s.verbose, glamourStyle(s.cfg))
}

// runOnce discovers modules, runs the engine and archives the reports.
// Discovery failures leave the artifacts directory alone. Once modules are
// loaded the run lock is held until the archive step, which runs even when
// the engine failed.
func (app *App) runOnce(ctx context.Context, s *session, filters []string) (err error) {
	set, err := s.ws.LoadBenchmarkModules(ctx)
	if err != nil {
		return discoveryError(err)
	}

	lock, err := s.ws.AcquireRunLock()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	defer lock.Release()
	defer func() {
		if ppErr := s.ws.PostProcessArtifacts(); ppErr != nil {
			err = errors.Join(err, fmt.Errorf("archive reports: %w", ppErr))
		}
	}()

	for _, d := range set.Diagnostics() {
		fmt.Fprintf(app.stderr, "%s %s\n", WarningStyle.Render("skipped"), d.String())
	}

	opts := append([]engine.Option{engine.WithRuntime(app.Runtime), engine.WithLogger(s.logger)}, app.engineOptions...)
	eng, err := engine.New(s.engineConfig(), opts...)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("configure benchmark engine").
			WithIssue(issue.InvalidConfigurationId).
			WithSuggestion("Check engine.exporters, engine.count and engine.bench_time").
			Wrap(err).
			BuildError()
	}

	req := engine.Request{Filters: filters}
	if s.ws.Options().SkipBenchmarksWithReports {
		req.ExcludeSuites, err = s.ws.ExistingReportSuites(suiteNames(set.Modules()))
		if err != nil {
			return err
		}
	}

	sum, err := eng.Run(ctx, set.Modules(), req)
	if sum != nil {
		renderSummary(app.stdout, sum, s.ws.ReportsTuningPath())
	}
	if errors.Is(err, engine.ErrBenchmarksFailed) {
		return issue.NewErrorContext().
			WithOperation("run benchmarks").
			WithIssue(issue.BenchmarksFailedId).
			WithSuggestion("Rerun the failing benchmark alone with a filter and --verbose").
			Wrap(err).
			BuildError()
	}
	return err
}

func discoveryError(err error) error {
	var noModules *workspace.NoModulesFoundError
	if errors.As(err, &noModules) {
		if slices.ContainsFunc(noModules.Skipped, func(d workspace.Diagnostic) bool {
			return errors.Is(d.Cause, modhost.ErrPluginsUnsupported)
		}) {
			return issue.NewErrorContext().
				WithOperation("load benchmark modules").
				WithResource(noModules.TuningDirectory).
				WithIssue(issue.PluginsUnsupportedId).
				Wrap(err).
				BuildError()
		}
		return issue.NewErrorContext().
			WithOperation("discover benchmark modules").
			WithResource(noModules.TuningDirectory).
			WithIssue(issue.NoModulesFoundId).
			Wrap(err).
			BuildError()
	}
	return fmt.Errorf("discover benchmark modules: %w", err)
}

func (f *runFlagValues) set(name string) bool {
	return f.changed != nil && f.changed(name)
}

func (f *runFlagValues) applyWorkspace(opts *workspace.Options) {
	switch {
	case f.debugBuild:
		opts.AllowDebugBuild = true
	case f.releaseBuild:
		opts.AllowDebugBuild = false
	}
	if f.skipReported {
		opts.SkipBenchmarksWithReports = true
	}
}

func (f *runFlagValues) applyEngine(s *session) {
	if f.set("exporter") {
		s.cfg.Engine.Exporters = f.exporters
	}
	if f.set("count") {
		s.cfg.Engine.Count = f.count
	}
	if f.set("bench-time") {
		s.cfg.Engine.BenchTime = f.benchTime
	}
	if f.set("timeout") {
		s.cfg.Engine.Timeout = f.timeout
	}
}

// childRunArgs rebuilds the 'run' invocation for a watch-mode rerun,
// without --build and --watch.
func childRunArgs(root *rootFlagValues, flags *runFlagValues, filters []string) []string {
	args := []string{"run"}
	if root.configPath != "" {
		args = append(args, "--config", root.configPath)
	}
	if root.verbose {
		args = append(args, "--verbose")
	}
	if flags.debugBuild {
		args = append(args, "--debug-build")
	}
	if flags.releaseBuild {
		args = append(args, "--release-build")
	}
	if flags.skipReported {
		args = append(args, "--skip-reported")
	}
	if flags.set("exporter") {
		for _, e := range flags.exporters {
			args = append(args, "--exporter", e)
		}
	}
	if flags.set("count") {
		args = append(args, "--count", strconv.Itoa(flags.count))
	}
	if flags.set("bench-time") {
		args = append(args, "--bench-time", flags.benchTime.String())
	}
	if flags.set("timeout") {
		args = append(args, "--timeout", flags.timeout.String())
	}
	if len(filters) > 0 {
		args = append(args, "--")
		args = append(args, filters...)
	}
	return args
}

// suiteNames lists the suite names exported by modules. Modules whose
// suites cannot be read are left to the engine to report.
func suiteNames(modules []modhost.Module) []string {
	var names []string
	for _, m := range modules {
		suites, err := moduleSuites(m)
		if err != nil {
			continue
		}
		for _, s := range suites {
			names = append(names, s.Name)
		}
	}
	return names
}

// SPDX-License-Identifier: MPL-2.0

package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/benchtune/benchtune/internal/modhost"
)

type (
	// Service is the workspace surface consumed by the CLI.
	Service interface {
		Options() Options
		LoadBenchmarkModules(ctx context.Context) (*ModuleSet, error)
		AcquireRunLock() (*RunLock, error)
		PostProcessArtifacts() error
		ResultsPath() string
		ReportsTuningPath() string
		ExistingReportSuites(suites []string) ([]string, error)
	}

	// Workspace binds validated options to discovery and reconciliation.
	Workspace struct {
		opts     Options
		runtime  modhost.Runtime
		resolver *FallbackResolver
		logger   *slog.Logger
		loader   *Loader
	}

	// Option configures a Workspace.
	Option func(*Workspace)
)

var _ Service = (*Workspace)(nil)

// WithRuntime overrides the host runtime (default modhost.Default()).
func WithRuntime(rt modhost.Runtime) Option {
	return func(w *Workspace) { w.runtime = rt }
}

// WithResolver overrides the fallback resolver (default DefaultResolver()).
func WithResolver(r *FallbackResolver) Option {
	return func(w *Workspace) { w.resolver = r }
}

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(w *Workspace) { w.logger = l }
}

// New validates opts and returns a Workspace. Validation happens before any
// filesystem access and fails with *InvalidConfigurationError.
func New(opts Options, options ...Option) (*Workspace, error) {
	resolved, err := opts.PostConfigure()
	if err != nil {
		return nil, err
	}

	w := &Workspace{opts: resolved}
	for _, o := range options {
		o(w)
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	if w.runtime == nil {
		w.runtime = modhost.Default()
	}
	if w.resolver == nil {
		w.resolver = DefaultResolver()
	}
	w.loader = NewLoader(w.runtime, w.resolver, w.logger)
	return w, nil
}

// Options returns the post-configured options.
func (w *Workspace) Options() Options { return w.opts }

// LoadBenchmarkModules discovers and loads the workspace's benchmark modules.
func (w *Workspace) LoadBenchmarkModules(ctx context.Context) (*ModuleSet, error) {
	set, err := w.loader.Load(ctx, w.opts)
	if err != nil {
		return nil, err
	}
	w.logger.Debug("benchmark modules discovered",
		"count", set.Len(),
		"skipped", len(set.diagnostics),
		"segment", BuildOutputSegment(w.opts))
	return set, nil
}

// AcquireRunLock blocks until this process is the only benchtune run using
// the artifacts directory. Hold it across the engine run and
// PostProcessArtifacts so reconcile never moves another run's results.
func (w *Workspace) AcquireRunLock() (*RunLock, error) {
	dir := w.opts.ArtifactsPath.String()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifacts directory %s: %w", dir, err)
	}
	return AcquireRunLock(filepath.Join(dir, LockFileName))
}

// PostProcessArtifacts archives the engine's reports. Call it after every
// run, whether or not the run succeeded.
func (w *Workspace) PostProcessArtifacts() error {
	return Reconcile(w.ResultsPath(), w.ReportsTuningPath())
}

// ResultsPath returns the transient engine output directory.
func (w *Workspace) ResultsPath() string {
	return ResultsPath(w.opts.ArtifactsPath.String())
}

// ReportsTuningPath returns the report archive directory.
func (w *Workspace) ReportsTuningPath() string {
	return ArchivePath(w.opts.ArtifactsPath.String(), w.opts.TuningFolder.String())
}

// ExistingReportSuites returns the suites that already have archived reports.
func (w *Workspace) ExistingReportSuites(suites []string) ([]string, error) {
	return SuitesWithReports(w.ReportsTuningPath(), suites)
}

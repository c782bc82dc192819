// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	goruntime "runtime"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benchtune/benchtune/internal/modhost"
	"github.com/benchtune/benchtune/pkg/bench"
)

const (
	// DefaultCount is the number of repeats per benchmark.
	DefaultCount = 3
	// DefaultBenchTime is the target run time of one repeat.
	DefaultBenchTime = 250 * time.Millisecond
)

var (
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid engine configuration")

	// ErrBenchmarksFailed is returned by Run when at least one benchmark or
	// suite failed. The summary is still returned.
	ErrBenchmarksFailed = errors.New("benchmarks failed")

	// ErrRequiredModuleMissing marks suites whose required modules could not
	// be resolved.
	ErrRequiredModuleMissing = errors.New("required module not found")

	//nolint:gochecknoglobals // testing's bench time is process-global.
	benchTimeMu sync.Mutex
)

type (
	// BenchmarkFunc runs one benchmark function; testing.Benchmark is the
	// production implementation.
	BenchmarkFunc func(f func(b *testing.B)) testing.BenchmarkResult

	// Config configures an Engine.
	Config struct {
		// ResultsPath receives the report files.
		ResultsPath string
		// Exporters names the report formats to write (see ExporterNames).
		Exporters []string
		Count     int
		BenchTime time.Duration
		// Timeout bounds a whole Run; zero means no limit.
		Timeout time.Duration
		// BuildMode and Target label the reports.
		BuildMode string
		Target    string
	}

	// InvalidConfigError lists every invalid Config field.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Request selects what a Run executes.
	Request struct {
		// Filters are doublestar globs or plain substrings matched against
		// "module.suite.benchmark". No filters selects everything.
		Filters []string
		// ExcludeSuites names suites to skip, compared case-insensitively.
		ExcludeSuites []string
	}

	// Engine executes benchmark suites.
	Engine struct {
		cfg       Config
		exporters []Exporter
		runtime   modhost.Runtime
		benchmark BenchmarkFunc
		logger    *slog.Logger
	}

	// Option configures an Engine.
	Option func(*Engine)

	// Summary describes a completed Run.
	Summary struct {
		Reports  []*Report
		Files    []string
		Skipped  []string
		Failures []Failure
		Elapsed  time.Duration
	}

	// Failure records a suite or benchmark that did not produce a result.
	Failure struct {
		Name string
		Err  error
	}
)

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, fe := range e.FieldErrors {
		msgs = append(msgs, fe.Error())
	}
	return fmt.Sprintf("%s: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// Error implements the error interface.
func (f Failure) Error() string { return fmt.Sprintf("%s: %v", f.Name, f.Err) }

// DefaultConfig returns the engine defaults for resultsPath.
func DefaultConfig(resultsPath string) Config {
	return Config{
		ResultsPath: resultsPath,
		Exporters:   []string{ExporterGitHub},
		Count:       DefaultCount,
		BenchTime:   DefaultBenchTime,
		BuildMode:   modhost.BuildModeRelease.String(),
		Target:      modhost.CurrentTarget(),
	}
}

// WithRuntime sets the runtime used to resolve suite requirements.
func WithRuntime(rt modhost.Runtime) Option {
	return func(e *Engine) { e.runtime = rt }
}

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithBenchmarkFunc replaces testing.Benchmark.
func WithBenchmarkFunc(fn BenchmarkFunc) Option {
	return func(e *Engine) { e.benchmark = fn }
}

// New validates cfg and returns an Engine.
func New(cfg Config, opts ...Option) (*Engine, error) {
	var errs []error
	if strings.TrimSpace(cfg.ResultsPath) == "" {
		errs = append(errs, errors.New("results path must not be empty"))
	}
	if cfg.Count < 1 {
		errs = append(errs, fmt.Errorf("count must be at least 1, got %d", cfg.Count))
	}
	if cfg.BenchTime <= 0 {
		errs = append(errs, fmt.Errorf("bench time must be positive, got %s", cfg.BenchTime))
	}
	if cfg.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %s", cfg.Timeout))
	}
	if len(cfg.Exporters) == 0 {
		errs = append(errs, errors.New("at least one exporter is required"))
	}
	exporters := make([]Exporter, 0, len(cfg.Exporters))
	for _, name := range cfg.Exporters {
		ex, err := ExporterByName(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		exporters = append(exporters, ex)
	}
	if len(errs) > 0 {
		return nil, &InvalidConfigError{FieldErrors: errs}
	}

	e := &Engine{cfg: cfg, exporters: exporters}
	for _, o := range opts {
		o(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.runtime == nil {
		e.runtime = modhost.Default()
	}
	if e.benchmark == nil {
		e.benchmark = e.testingBenchmark
	}
	return e, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// Run executes every selected benchmark of modules and writes reports.
// It stops between benchmarks when ctx is done and returns the partial
// summary with the context error. Failed benchmarks do not stop the run;
// they are collected and reported through ErrBenchmarksFailed.
func (e *Engine) Run(ctx context.Context, modules []modhost.Module, req Request) (*Summary, error) {
	start := time.Now()
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	if err := os.MkdirAll(e.cfg.ResultsPath, 0o755); err != nil {
		return nil, fmt.Errorf("create results directory %s: %w", e.cfg.ResultsPath, err)
	}
	if strings.EqualFold(e.cfg.BuildMode, modhost.BuildModeDebug.String()) {
		e.logger.Warn("benchmarking debug builds; results come from unoptimized code")
	}

	match, err := newMatcher(req.Filters)
	if err != nil {
		return nil, err
	}

	sum := &Summary{}
	defer func() { sum.Elapsed = time.Since(start) }()

	for _, m := range modules {
		if err := e.runModule(ctx, m, match, req.ExcludeSuites, sum); err != nil {
			return sum, err
		}
	}

	if len(sum.Failures) > 0 {
		return sum, fmt.Errorf("%w: %d of them", ErrBenchmarksFailed, len(sum.Failures))
	}
	return sum, nil
}

func (e *Engine) runModule(ctx context.Context, m modhost.Module, match matcher, exclude []string, sum *Summary) error {
	moduleName := m.Identity().Name

	sym, err := m.Lookup(bench.SuitesSymbol)
	if err != nil {
		sum.Failures = append(sum.Failures, Failure{Name: moduleName, Err: err})
		return nil
	}
	suites, err := bench.FromSymbol(sym)
	if err != nil {
		sum.Failures = append(sum.Failures, Failure{Name: moduleName, Err: err})
		return nil
	}

	for _, s := range suites {
		suiteName := moduleName + "." + s.Name
		if err := s.Validate(); err != nil {
			sum.Failures = append(sum.Failures, Failure{Name: suiteName, Err: err})
			continue
		}
		if slices.ContainsFunc(exclude, func(x string) bool { return strings.EqualFold(x, s.Name) }) {
			e.logger.Info("skipping suite with existing report", "suite", suiteName)
			sum.Skipped = append(sum.Skipped, suiteName)
			continue
		}

		var selected []bench.Benchmark
		for _, b := range s.Benchmarks {
			if match(suiteName + "." + b.Name) {
				selected = append(selected, b)
			}
		}
		if len(selected) == 0 {
			continue
		}

		if missing := e.missingRequirements(s.Requires); len(missing) > 0 {
			sum.Failures = append(sum.Failures, Failure{
				Name: suiteName,
				Err:  fmt.Errorf("%w: %s", ErrRequiredModuleMissing, strings.Join(missing, ", ")),
			})
			continue
		}

		report, err := e.runSuite(ctx, moduleName, s.Name, selected, sum)
		if err != nil {
			return err
		}
		files, err := e.writeReport(report)
		sum.Files = append(sum.Files, files...)
		sum.Reports = append(sum.Reports, report)
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) missingRequirements(requires []string) []string {
	var missing []string
	for _, name := range requires {
		if _, ok := e.runtime.Resolve(name); !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

func (e *Engine) runSuite(ctx context.Context, module, suite string, benchmarks []bench.Benchmark, sum *Summary) (*Report, error) {
	report := e.newReport(module, suite)
	e.logger.Info("running suite", "suite", module+"."+suite, "benchmarks", len(benchmarks))

	for _, b := range benchmarks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res := e.runBenchmark(b)
		if res.Error != "" {
			sum.Failures = append(sum.Failures, Failure{
				Name: module + "." + suite + "." + b.Name,
				Err:  errors.New(res.Error),
			})
		}
		e.logger.Debug("benchmark finished", "benchmark", b.Name, "n", res.N, "ns_op", res.NsPerOp, "error", res.Error)
		report.Results = append(report.Results, res)
	}
	return report, nil
}

// runBenchmark repeats b Count times and aggregates the repeats.
func (e *Engine) runBenchmark(b bench.Benchmark) Result {
	runs := make([]testing.BenchmarkResult, 0, e.cfg.Count)
	for range e.cfg.Count {
		var panicked atomic.Value
		r := e.benchmark(guard(b.F, &panicked))
		if p := panicked.Load(); p != nil {
			return Result{Method: b.Name, Error: fmt.Sprintf("panic: %v", p)}
		}
		if r.N == 0 {
			return Result{Method: b.Name, Error: "benchmark failed or was skipped"}
		}
		runs = append(runs, r)
	}
	return aggregate(b.Name, runs)
}

// guard turns a panic in f into a failed benchmark.
func guard(f func(b *testing.B), panicked *atomic.Value) func(b *testing.B) {
	return func(b *testing.B) {
		defer func() {
			if r := recover(); r != nil {
				panicked.Store(fmt.Sprint(r))
				b.Fail()
			}
		}()
		f(b)
	}
}

// testingBenchmark runs f with testing.Benchmark at the configured bench time.
func (e *Engine) testingBenchmark(f func(b *testing.B)) testing.BenchmarkResult {
	benchTimeMu.Lock()
	defer benchTimeMu.Unlock()
	testing.Init()
	if err := flag.Set("test.benchtime", e.cfg.BenchTime.String()); err != nil {
		e.logger.Debug("cannot set bench time", "error", err)
	}
	return testing.Benchmark(f)
}

func (e *Engine) newReport(module, suite string) *Report {
	return &Report{
		Module:    module,
		Suite:     suite,
		BuildMode: e.cfg.BuildMode,
		Target:    e.cfg.Target,
		GoVersion: goruntime.Version(),
		Platform:  goruntime.GOOS + "/" + goruntime.GOARCH,
		Count:     e.cfg.Count,
		BenchTime: e.cfg.BenchTime.String(),
	}
}

func (e *Engine) writeReport(r *Report) ([]string, error) {
	files := make([]string, 0, len(e.exporters))
	for _, ex := range e.exporters {
		path := filepath.Join(e.cfg.ResultsPath, r.FileName(ex))
		if err := writeExport(path, ex, r); err != nil {
			return files, err
		}
		files = append(files, path)
	}
	return files, nil
}

func writeExport(path string, ex Exporter, r *Report) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close report %s: %w", path, closeErr)
		}
	}()
	if err := ex.Export(f, r); err != nil {
		return fmt.Errorf("export %s report %s: %w", ex.Name(), path, err)
	}
	return nil
}

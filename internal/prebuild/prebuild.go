// SPDX-License-Identifier: MPL-2.0

package prebuild

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/benchtune/benchtune/internal/modhost"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// Environment variables exported to the build script.
const (
	EnvBuildMode     = "BENCHTUNE_BUILD_MODE"
	EnvTarget        = "BENCHTUNE_TARGET"
	EnvTuningDir     = "BENCHTUNE_TUNING_DIR"
	EnvModuleSuffix  = "BENCHTUNE_MODULE_SUFFIX"
	EnvOutputSegment = "BENCHTUNE_OUTPUT_SEGMENT"
	EnvOutputDir     = "BENCHTUNE_OUTPUT_DIR"
)

var (
	// ErrEmptyScript is returned when no build script is configured.
	ErrEmptyScript = errors.New("build script is empty")
	// ErrScriptFailed is the sentinel wrapped by ScriptError.
	ErrScriptFailed = errors.New("build script failed")
)

type (
	// Request describes one build.
	Request struct {
		Script        string
		WorkDir       string
		BuildMode     modhost.BuildMode
		Target        string
		TuningDir     string
		ModuleSuffix  string
		OutputSegment string
		// ExtraEnv is applied last and wins over every other variable.
		ExtraEnv map[string]string
	}

	// Result reports a successful build.
	Result struct {
		Elapsed time.Duration
	}

	// ScriptError reports a non-zero exit from the build script.
	ScriptError struct {
		ExitCode int
	}

	// Builder runs build scripts.
	Builder struct {
		stdout io.Writer
		stderr io.Writer
		logger *slog.Logger
		env    func() []string
	}

	// Option configures a Builder.
	Option func(*Builder)
)

// Error implements the error interface.
func (e *ScriptError) Error() string {
	return fmt.Sprintf("build script exited with status %d", e.ExitCode)
}

// Unwrap returns ErrScriptFailed for errors.Is() compatibility.
func (e *ScriptError) Unwrap() error { return ErrScriptFailed }

// WithOutput redirects script stdout and stderr (default os.Stdout/os.Stderr).
func WithOutput(stdout, stderr io.Writer) Option {
	return func(b *Builder) {
		b.stdout = stdout
		b.stderr = stderr
	}
}

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// WithHostEnv replaces os.Environ as the base environment.
func WithHostEnv(env func() []string) Option {
	return func(b *Builder) { b.env = env }
}

// New creates a Builder.
func New(opts ...Option) *Builder {
	b := &Builder{stdout: os.Stdout, stderr: os.Stderr, env: os.Environ}
	for _, o := range opts {
		o(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b
}

// Validate parses script without running it.
func Validate(script string) error {
	if strings.TrimSpace(script) == "" {
		return ErrEmptyScript
	}
	if _, err := syntax.NewParser().Parse(strings.NewReader(script), "build_script"); err != nil {
		return fmt.Errorf("failed to parse build script: %w", err)
	}
	return nil
}

// Run interprets req.Script in req.WorkDir. A non-zero exit is reported as
// *ScriptError.
func (b *Builder) Run(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("build canceled: %w", err)
	}
	if strings.TrimSpace(req.Script) == "" {
		return Result{}, ErrEmptyScript
	}
	prog, err := syntax.NewParser().Parse(strings.NewReader(req.Script), "build_script")
	if err != nil {
		return Result{}, fmt.Errorf("failed to parse build script: %w", err)
	}

	runner, err := interp.New(
		interp.Dir(req.WorkDir),
		interp.Env(expand.ListEnviron(b.environ(req)...)),
		interp.StdIO(nil, b.stdout, b.stderr),
	)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create interpreter: %w", err)
	}

	b.logger.Debug("running build script", "dir", req.WorkDir, "mode", req.BuildMode, "target", req.Target)
	start := time.Now()
	err = runner.Run(ctx, prog)
	elapsed := time.Since(start)
	if err != nil {
		var status interp.ExitStatus
		if errors.As(err, &status) {
			return Result{Elapsed: elapsed}, &ScriptError{ExitCode: int(status)}
		}
		return Result{Elapsed: elapsed}, fmt.Errorf("build script execution failed: %w", err)
	}

	b.logger.Debug("build script finished", "elapsed", elapsed)
	return Result{Elapsed: elapsed}, nil
}

// environ merges host env, BENCHTUNE_* variables and ExtraEnv in that order.
func (b *Builder) environ(req Request) []string {
	env := make(map[string]string)
	for _, kv := range b.env() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}

	env[EnvBuildMode] = req.BuildMode.String()
	env[EnvTarget] = req.Target
	env[EnvTuningDir] = req.TuningDir
	env[EnvModuleSuffix] = req.ModuleSuffix
	env[EnvOutputSegment] = filepath.ToSlash(req.OutputSegment)
	if req.TuningDir != "" && req.OutputSegment != "" {
		env[EnvOutputDir] = filepath.Join(req.TuningDir, req.OutputSegment)
	}
	for k, v := range req.ExtraEnv {
		env[k] = v
	}

	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	slices.Sort(out)
	return out
}

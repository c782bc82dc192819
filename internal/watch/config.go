// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultDebounce is the quiet period used when Config.Debounce is unset.
// Linkers write plugins in several chunks; half a second covers a typical
// multi-module build.
const DefaultDebounce = 500 * time.Millisecond

// ErrInvalidWatchConfig is the sentinel wrapped by InvalidWatchConfigError.
var ErrInvalidWatchConfig = errors.New("invalid watch config")

// builtinIgnores never trigger a rerun: VCS metadata, editor droppings and
// the engine's own lock files.
var builtinIgnores = []string{
	"**/.git/**",
	"**/*.lock",
	"**/*.swp",
	"**/*~",
	"**/.ds_store",
}

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// Root is the directory tree to watch, normally the tuning directory.
		Root string
		// Patterns select the files that count as changes, as doublestar
		// globs relative to Root. Matching ignores case. Empty matches all.
		Patterns []string
		// Ignore adds patterns to the built-in ignore list.
		Ignore []string
		// Debounce is the quiet period before OnChange fires.
		Debounce time.Duration
		// OnChange receives each batch. Errors are logged and watching
		// continues.
		OnChange func(ctx context.Context, batch Batch) error
		// Logger defaults to slog.Default().
		Logger *slog.Logger
	}

	// Batch is the set of paths that changed during one debounce window,
	// relative to Root with forward slashes, each list sorted.
	Batch struct {
		Changed []string
		Removed []string
	}

	// InvalidWatchConfigError collects Config field errors.
	InvalidWatchConfigError struct {
		FieldErrors []error
	}
)

// PluginPatterns returns the glob selecting plugins with the given suffix
// under outputSegment, at any depth below Root.
func PluginPatterns(outputSegment, moduleSuffix string) []string {
	segment := strings.Trim(strings.ReplaceAll(outputSegment, `\`, "/"), "/")
	return []string{"**/" + segment + "/**/*." + moduleSuffix + ".so"}
}

// Validate checks Root and every pattern.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Root) == "" {
		errs = append(errs, errors.New("root must not be empty"))
	}
	for _, p := range c.Patterns {
		if p == "" || !doublestar.ValidatePattern(p) {
			errs = append(errs, fmt.Errorf("invalid watch pattern %q", p))
		}
	}
	for _, p := range c.Ignore {
		if p == "" || !doublestar.ValidatePattern(p) {
			errs = append(errs, fmt.Errorf("invalid ignore pattern %q", p))
		}
	}
	if c.Debounce < 0 {
		errs = append(errs, fmt.Errorf("debounce must not be negative, got %s", c.Debounce))
	}
	if len(errs) > 0 {
		return &InvalidWatchConfigError{FieldErrors: errs}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidWatchConfigError) Error() string {
	return fmt.Sprintf("%s: %d field error(s): %v", ErrInvalidWatchConfig, len(e.FieldErrors), errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidWatchConfig for errors.Is() compatibility.
func (e *InvalidWatchConfigError) Unwrap() error { return ErrInvalidWatchConfig }

// Empty reports whether the batch carries no paths.
func (b Batch) Empty() bool { return len(b.Changed) == 0 && len(b.Removed) == 0 }

// matcher decides which relative paths are interesting.
type matcher struct {
	include []string
	ignore  []string
}

func newMatcher(cfg Config) matcher {
	lower := func(in []string) []string {
		out := make([]string, 0, len(in))
		for _, p := range in {
			out = append(out, strings.ToLower(p))
		}
		return out
	}
	return matcher{
		include: lower(cfg.Patterns),
		ignore:  append(lower(builtinIgnores), lower(cfg.Ignore)...),
	}
}

func (m matcher) ignored(rel string) bool {
	return matchAny(m.ignore, rel)
}

func (m matcher) wanted(rel string) bool {
	if m.ignored(rel) {
		return false
	}
	return len(m.include) == 0 || matchAny(m.include, rel)
}

func matchAny(patterns []string, rel string) bool {
	name := strings.ToLower(filepath.ToSlash(rel))
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}

// SPDX-License-Identifier: MPL-2.0

package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/benchtune/benchtune/internal/modhost"
)

type (
	// Loader produces the set of runnable benchmark modules for a workspace.
	Loader struct {
		runtime  modhost.Runtime
		resolver *FallbackResolver
		logger   *slog.Logger
	}

	// ModuleSet is the ordered, identity-unique result of a discovery pass.
	// It is never mutated after Load returns it.
	ModuleSet struct {
		modules     []modhost.Module
		diagnostics []Diagnostic
	}
)

// NewLoader binds a loader to a runtime and resolver.
func NewLoader(rt modhost.Runtime, resolver *FallbackResolver, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{runtime: rt, resolver: resolver, logger: logger}
}

// Load discovers, de-duplicates and loads the benchmark modules selected by
// opts. Candidates that cannot be identified or loaded are skipped and
// reported as diagnostics. An empty result fails with *NoModulesFoundError.
func (l *Loader) Load(ctx context.Context, opts Options) (*ModuleSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tuningDir := TuningDirectory(opts)
	ix, err := BuildModuleIndex(tuningDir)
	if err != nil {
		return nil, err
	}
	l.resolver.Publish(ix)
	l.resolver.Install(l.runtime)

	candidates, err := l.candidates(ix.Root(), opts)
	if err != nil {
		return nil, err
	}

	set := &ModuleSet{}
	selected := make(map[string]struct{}, len(candidates))
	loaded := l.runtime.Loaded()

	for _, path := range candidates {
		id, err := l.runtime.Identify(path)
		if err != nil {
			set.skip(l.logger, path, "cannot read module identity", err)
			continue
		}
		if _, dup := selected[id.Key()]; dup {
			l.logger.Debug("duplicate benchmark module skipped", "module", id.String(), "path", path)
			continue
		}

		m := findLoaded(loaded, id)
		if m == nil {
			m, err = l.runtime.Load(path)
			if err != nil {
				set.skip(l.logger, path, "cannot load module", err)
				continue
			}
		}
		selected[id.Key()] = struct{}{}
		set.modules = append(set.modules, m)
	}

	if len(set.modules) == 0 {
		return nil, &NoModulesFoundError{
			TuningDirectory:  ix.Root(),
			BuildMode:        opts.BuildMode().String(),
			TargetIdentifier: opts.TargetIdentifier.String(),
			Skipped:          set.diagnostics,
		}
	}
	return set, nil
}

// candidates returns, in walk order, the module binaries named
// *.<suffix>.so that sit under the build output segment.
func (l *Loader) candidates(root string, opts Options) ([]string, error) {
	suffix := strings.ToLower("." + opts.ModuleSuffix.String() + modhost.ModuleExt)
	segment := BuildOutputSegment(opts)

	var out []string
	err := walkModules(root, func(path string) {
		name := strings.ToLower(filepath.Base(path))
		if len(name) <= len(suffix) || !strings.HasSuffix(name, suffix) {
			return
		}
		rel, err := filepath.Rel(root, filepath.Dir(path))
		if err != nil || !containsSegment(rel, segment) {
			return
		}
		out = append(out, path)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func findLoaded(loaded []modhost.Module, id modhost.Identity) modhost.Module {
	for _, m := range loaded {
		if m.Identity().Matches(id) {
			return m
		}
	}
	return nil
}

func (s *ModuleSet) skip(logger *slog.Logger, path, msg string, cause error) {
	logger.Debug("benchmark module skipped", "path", path, "reason", msg, "error", cause)
	s.diagnostics = append(s.diagnostics, Diagnostic{
		Severity: SeverityWarning,
		Code:     CodeModuleLoadSkipped,
		Message:  fmt.Sprintf("%s: %s", msg, filepath.Base(path)),
		Path:     path,
		Cause:    cause,
	})
}

// Modules returns the loaded modules in discovery order.
func (s *ModuleSet) Modules() []modhost.Module {
	out := make([]modhost.Module, len(s.modules))
	copy(out, s.modules)
	return out
}

// Len returns the number of modules.
func (s *ModuleSet) Len() int { return len(s.modules) }

// Identities returns the identity of each module in discovery order.
func (s *ModuleSet) Identities() []modhost.Identity {
	out := make([]modhost.Identity, len(s.modules))
	for i, m := range s.modules {
		out[i] = m.Identity()
	}
	return out
}

// Diagnostics returns the candidates skipped during discovery.
func (s *ModuleSet) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, len(s.diagnostics))
	copy(out, s.diagnostics)
	return out
}

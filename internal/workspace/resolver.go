// SPDX-License-Identifier: MPL-2.0

package workspace

import (
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/benchtune/benchtune/internal/modhost"
)

//nolint:gochecknoglobals // The resolve hook can only be installed once per process.
var defaultResolver = sync.OnceValue(func() *FallbackResolver { return NewFallbackResolver(nil) })

// FallbackResolver answers module requests the host runtime cannot satisfy
// from its loaded set, using the latest published ModuleIndex. It is
// installed into a runtime at most once; later index publications are
// picked up by the installed hook without reinstalling.
type FallbackResolver struct {
	mu        sync.Mutex
	installed atomic.Bool
	runtime   modhost.Runtime
	index     atomic.Pointer[ModuleIndex]
	logger    *slog.Logger
}

// NewFallbackResolver returns an uninstalled resolver.
func NewFallbackResolver(logger *slog.Logger) *FallbackResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackResolver{logger: logger}
}

// DefaultResolver returns the process-wide resolver used with modhost.Default.
func DefaultResolver() *FallbackResolver { return defaultResolver() }

// Publish replaces the index snapshot consulted by Resolve.
func (r *FallbackResolver) Publish(ix *ModuleIndex) { r.index.Store(ix) }

// Installed reports whether Install has bound the resolver to a runtime.
func (r *FallbackResolver) Installed() bool { return r.installed.Load() }

// Install registers Resolve as rt's resolve hook. Only the first call has an
// effect; it reports whether this call installed the hook.
func (r *FallbackResolver) Install(rt modhost.Runtime) bool {
	if r.installed.Load() {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.installed.Load() {
		return false
	}
	r.runtime = rt
	rt.SetResolveHook(r.Resolve)
	r.installed.Store(true)
	r.logger.Debug("fallback module resolver installed")
	return true
}

// Resolve looks name up in the published index and returns the matching
// loaded module, loading it when needed. Every failure declines.
func (r *FallbackResolver) Resolve(name string) (m modhost.Module, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Debug("module resolution panicked", "module", name, "panic", rec)
			m, ok = nil, false
		}
	}()

	r.mu.Lock()
	rt := r.runtime
	r.mu.Unlock()
	if rt == nil {
		return nil, false
	}

	path, found := r.index.Load().Lookup(name)
	if !found {
		r.logger.Debug("module not in tuning index", "module", name)
		return nil, false
	}
	if _, err := os.Stat(path); err != nil {
		r.logger.Debug("indexed module is gone", "module", name, "path", path, "error", err)
		return nil, false
	}

	id, err := rt.Identify(path)
	if err != nil {
		r.logger.Debug("cannot identify indexed module", "module", name, "path", path, "error", err)
		return nil, false
	}
	for _, loaded := range rt.Loaded() {
		if loaded.Identity().Matches(id) {
			return loaded, true
		}
	}

	m, err = rt.Load(path)
	if err != nil {
		r.logger.Debug("cannot load indexed module", "module", name, "path", path, "error", err)
		return nil, false
	}
	return m, true
}

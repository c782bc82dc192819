// SPDX-License-Identifier: MPL-2.0

package modhost

import (
	"errors"
	"fmt"
	"path/filepath"
	"plugin"
	"strings"
	"sync"
)

// ErrPluginsUnsupported is returned by Load when the host binary cannot open
// Go plugins (non-cgo builds or unsupported operating systems).
var ErrPluginsUnsupported = errors.New("go plugins are not supported by this build")

type (
	// PluginRuntime is the Runtime backed by the standard plugin package.
	PluginRuntime struct {
		mu     sync.RWMutex
		byPath map[string]*pluginModule
		order  []Module
		hook   ResolveFunc
	}

	pluginModule struct {
		id   Identity
		path string
		p    *plugin.Plugin
	}
)

// NewPluginRuntime returns an empty PluginRuntime.
func NewPluginRuntime() *PluginRuntime {
	return &PluginRuntime{byPath: make(map[string]*pluginModule)}
}

// PluginsSupported reports whether this binary can open Go plugins.
func PluginsSupported() bool { return pluginsSupported }

// Loaded implements Runtime.
func (r *PluginRuntime) Loaded() []Module {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Module, len(r.order))
	copy(out, r.order)
	return out
}

// Identify implements Runtime.
func (r *PluginRuntime) Identify(path string) (Identity, error) {
	return ReadIdentity(path)
}

// Load implements Runtime.
func (r *PluginRuntime) Load(path string) (Module, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve module path %s: %w", path, err)
	}

	r.mu.RLock()
	existing, ok := r.byPath[abs]
	r.mu.RUnlock()
	if ok {
		return existing, nil
	}

	if !pluginsSupported {
		return nil, fmt.Errorf("load %s: %w", abs, ErrPluginsUnsupported)
	}

	id, err := ReadIdentity(abs)
	if err != nil {
		return nil, err
	}

	p, err := plugin.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("open module %s: %w", abs, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byPath[abs]; ok {
		return existing, nil
	}
	m := &pluginModule{id: id, path: abs, p: p}
	r.byPath[abs] = m
	r.order = append(r.order, m)
	return m, nil
}

// SetResolveHook implements Runtime.
func (r *PluginRuntime) SetResolveHook(hook ResolveFunc) {
	r.mu.Lock()
	r.hook = hook
	r.mu.Unlock()
}

// Resolve implements Runtime.
func (r *PluginRuntime) Resolve(name string) (Module, bool) {
	r.mu.RLock()
	hook := r.hook
	for _, m := range r.order {
		if strings.EqualFold(m.Identity().Name, name) {
			r.mu.RUnlock()
			return m, true
		}
	}
	r.mu.RUnlock()

	if hook == nil {
		return nil, false
	}
	return hook(name)
}

func (m *pluginModule) Identity() Identity { return m.id }

func (m *pluginModule) Path() string { return m.path }

func (m *pluginModule) Lookup(symbol string) (any, error) {
	sym, err := m.p.Lookup(symbol)
	if err != nil {
		return nil, fmt.Errorf("module %s: %w", m.id.Name, err)
	}
	return sym, nil
}

//nolint:gochecknoglobals // The host process has exactly one plugin table.
var defaultRuntime = sync.OnceValue(NewPluginRuntime)

// Default returns the process-wide PluginRuntime. Go plugins cannot be
// unloaded, so every component of a process shares this instance.
func Default() *PluginRuntime { return defaultRuntime() }

// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"

	"github.com/benchtune/benchtune/internal/modhost"
)

// ErrSymbolNotFound is returned by StaticModule.Lookup for unknown symbols.
var ErrSymbolNotFound = errors.New("symbol not found")

type (
	// FakeRuntime is a modhost.Runtime that reads identities from real files
	// but never opens plugins; Load returns a StaticModule.
	FakeRuntime struct {
		mu        sync.Mutex
		loaded    []modhost.Module
		byPath    map[string]modhost.Module
		hook      modhost.ResolveFunc
		hookSets  int
		loadCalls []string
		// FailLoad makes Load fail for paths it returns true for.
		FailLoad func(path string) bool
		// Symbols, when set, provides the symbol table of loaded modules by
		// simple name.
		Symbols func(name string) map[string]any
	}

	// StaticModule is a modhost.Module with a fixed symbol table.
	StaticModule struct {
		ID       modhost.Identity
		FilePath string
		Symbols  map[string]any
	}
)

var (
	_ modhost.Runtime = (*FakeRuntime)(nil)
	_ modhost.Module  = (*StaticModule)(nil)
)

// NewFakeRuntime returns an empty FakeRuntime.
func NewFakeRuntime() *FakeRuntime {
	return &FakeRuntime{byPath: make(map[string]modhost.Module)}
}

// Loaded implements modhost.Runtime.
func (r *FakeRuntime) Loaded() []modhost.Module {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]modhost.Module, len(r.loaded))
	copy(out, r.loaded)
	return out
}

// Identify implements modhost.Runtime using the real identity reader.
func (r *FakeRuntime) Identify(path string) (modhost.Identity, error) {
	return modhost.ReadIdentity(path)
}

// Load implements modhost.Runtime.
func (r *FakeRuntime) Load(path string) (modhost.Module, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.loadCalls = append(r.loadCalls, abs)
	if m, ok := r.byPath[abs]; ok {
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()

	if r.FailLoad != nil && r.FailLoad(abs) {
		return nil, errors.New("fake runtime: load refused")
	}
	id, err := modhost.ReadIdentity(abs)
	if err != nil {
		return nil, err
	}
	m := &StaticModule{ID: id, FilePath: abs}
	if r.Symbols != nil {
		m.Symbols = r.Symbols(id.Name)
	}
	r.Preload(m)
	return m, nil
}

// Preload registers m as already loaded.
func (r *FakeRuntime) Preload(m modhost.Module) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byPath[m.Path()]; ok {
		return
	}
	r.byPath[m.Path()] = m
	r.loaded = append(r.loaded, m)
}

// SetResolveHook implements modhost.Runtime.
func (r *FakeRuntime) SetResolveHook(hook modhost.ResolveFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hook = hook
	r.hookSets++
}

// Resolve implements modhost.Runtime.
func (r *FakeRuntime) Resolve(name string) (modhost.Module, bool) {
	r.mu.Lock()
	hook := r.hook
	for _, m := range r.loaded {
		if strings.EqualFold(m.Identity().Name, name) {
			r.mu.Unlock()
			return m, true
		}
	}
	r.mu.Unlock()
	if hook == nil {
		return nil, false
	}
	return hook(name)
}

// HookSets returns how many times SetResolveHook was called.
func (r *FakeRuntime) HookSets() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hookSets
}

// LoadCalls returns the absolute paths passed to Load.
func (r *FakeRuntime) LoadCalls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.loadCalls))
	copy(out, r.loadCalls)
	return out
}

// Identity implements modhost.Module.
func (m *StaticModule) Identity() modhost.Identity { return m.ID }

// Path implements modhost.Module.
func (m *StaticModule) Path() string { return m.FilePath }

// Lookup implements modhost.Module.
func (m *StaticModule) Lookup(symbol string) (any, error) {
	if v, ok := m.Symbols[symbol]; ok {
		return v, nil
	}
	return nil, ErrSymbolNotFound
}

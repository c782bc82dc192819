// SPDX-License-Identifier: MPL-2.0

package modhost

type (
	// Module is a loaded benchmark module.
	Module interface {
		Identity() Identity
		Path() string
		// Lookup returns the exported symbol with the given name.
		Lookup(symbol string) (any, error)
	}

	// ResolveFunc answers a request for a module by simple name.
	// It returns false to decline; it must not panic.
	ResolveFunc func(name string) (Module, bool)

	// Runtime is the host module system.
	Runtime interface {
		// Loaded returns a snapshot of the modules loaded so far, in load order.
		Loaded() []Module
		// Load opens the module at path, returning the existing instance when
		// the same path was loaded before.
		Load(path string) (Module, error)
		// Identify reads the identity of a module binary without loading it.
		Identify(path string) (Identity, error)
		// SetResolveHook installs the hook consulted by Resolve for names that
		// are not loaded. A nil hook removes it.
		SetResolveHook(hook ResolveFunc)
		// Resolve returns a loaded module by simple name, falling back to the
		// resolve hook.
		Resolve(name string) (Module, bool)
	}
)

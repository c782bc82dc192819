// SPDX-License-Identifier: MPL-2.0

package modhost

import (
	"debug/buildinfo"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ModuleExt is the file extension of loadable benchmark modules.
const ModuleExt = ".so"

// ErrUnreadableIdentity is the sentinel error wrapped by IdentityError.
var ErrUnreadableIdentity = errors.New("module identity unreadable")

type (
	// Identity is the comparable identity of a module binary.
	// Two binaries are the same module when Matches reports true.
	Identity struct {
		// Name is the simple module name: the file name without ModuleExt.
		Name string
		// ModulePath is the Go module path recorded in the build info.
		ModulePath string
		// Version is the main module version recorded in the build info.
		Version string
		// Revision is the VCS revision, empty when the build was not stamped.
		Revision string
	}

	// IdentityError is returned when build information cannot be read from a
	// candidate binary.
	IdentityError struct {
		Path string
		Err  error
	}
)

// Error implements the error interface.
func (e *IdentityError) Error() string {
	return fmt.Sprintf("read identity of %s: %v", e.Path, e.Err)
}

// Unwrap returns ErrUnreadableIdentity so callers can use errors.Is.
func (e *IdentityError) Unwrap() []error { return []error{ErrUnreadableIdentity, e.Err} }

// Matches reports whether two identities name the same module.
// Names compare case-insensitively; module path and version compare exactly.
func (id Identity) Matches(other Identity) bool {
	return strings.EqualFold(id.Name, other.Name) &&
		id.ModulePath == other.ModulePath &&
		id.Version == other.Version
}

// Key returns a map key that is equal for matching identities.
func (id Identity) Key() string {
	return strings.ToLower(id.Name) + "\x00" + id.ModulePath + "\x00" + id.Version
}

// String returns "name (modulepath@version)".
func (id Identity) String() string {
	if id.ModulePath == "" {
		return id.Name
	}
	return fmt.Sprintf("%s (%s@%s)", id.Name, id.ModulePath, id.Version)
}

// SimpleName returns the file name of path without ModuleExt.
func SimpleName(path string) string {
	base := filepath.Base(path)
	if strings.EqualFold(filepath.Ext(base), ModuleExt) {
		return base[:len(base)-len(ModuleExt)]
	}
	return base
}

// ReadIdentity reads the identity of the module binary at path without
// loading it.
func ReadIdentity(path string) (Identity, error) {
	bi, err := buildinfo.ReadFile(path)
	if err != nil {
		return Identity{}, &IdentityError{Path: path, Err: err}
	}

	id := Identity{
		Name:       SimpleName(path),
		ModulePath: bi.Path,
		Version:    bi.Main.Version,
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" {
			id.Revision = s.Value
			break
		}
	}
	return id, nil
}

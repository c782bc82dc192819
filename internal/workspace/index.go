// SPDX-License-Identifier: MPL-2.0

package workspace

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/benchtune/benchtune/internal/modhost"
)

// ModuleIndex maps lower-cased simple module names to absolute paths of the
// module binaries found under a tuning directory. An index is immutable once
// built; rebuilding produces a new value.
//
// When several binaries share a simple name the first one in lexical walk
// order wins.
type ModuleIndex struct {
	root  string
	paths map[string]string
}

// BuildModuleIndex creates tuningDir when absent and indexes every module
// binary below it.
func BuildModuleIndex(tuningDir string) (*ModuleIndex, error) {
	root, err := filepath.Abs(tuningDir)
	if err != nil {
		return nil, fmt.Errorf("resolve tuning directory %s: %w", tuningDir, err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create tuning directory %s: %w", root, err)
	}

	ix := &ModuleIndex{root: root, paths: make(map[string]string)}
	err = walkModules(root, func(path string) {
		key := strings.ToLower(modhost.SimpleName(path))
		if _, exists := ix.paths[key]; !exists {
			ix.paths[key] = path
		}
	})
	if err != nil {
		return nil, err
	}
	return ix, nil
}

// Lookup returns the path indexed for name, compared case-insensitively.
func (ix *ModuleIndex) Lookup(name string) (string, bool) {
	if ix == nil {
		return "", false
	}
	p, ok := ix.paths[strings.ToLower(name)]
	return p, ok
}

// Len returns the number of indexed names.
func (ix *ModuleIndex) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.paths)
}

// Root returns the indexed directory.
func (ix *ModuleIndex) Root() string {
	if ix == nil {
		return ""
	}
	return ix.root
}

// walkModules calls fn for every regular file with the module extension
// below root, in lexical order. Unreadable subdirectories are skipped.
func walkModules(root string, fn func(path string)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("walk %s: %w", root, err)
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), modhost.ModuleExt) {
			fn(path)
		}
		return nil
	})
}

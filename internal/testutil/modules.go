// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// goBinary reads the running test executable once per process.
//
//nolint:gochecknoglobals // Process-wide fixture cache.
var goBinary = sync.OnceValues(func() ([]byte, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, err
	}
	return os.ReadFile(exe)
})

// ModuleFixture writes a copy of the running test binary to root/rel and
// returns its path. The copy has genuine build information, so its identity
// can be read like a real plugin's. All fixtures share module path and
// version; their identities differ by file name only.
func ModuleFixture(t testing.TB, root, rel string) string {
	t.Helper()
	data, err := goBinary()
	if err != nil {
		t.Skipf("test binary unavailable: %v", err)
	}
	path := filepath.Join(root, filepath.FromSlash(rel))
	MustMkdirAll(t, filepath.Dir(path))
	if err := os.WriteFile(path, data, 0o755); err != nil {
		t.Fatalf("failed to write module fixture %s: %v", path, err)
	}
	return path
}

// CorruptModuleFixture writes a file with a module name that carries no
// build information.
func CorruptModuleFixture(t testing.TB, root, rel string) string {
	t.Helper()
	return MustWriteFile(t, root, rel, "this is not a Go binary")
}

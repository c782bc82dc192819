// SPDX-License-Identifier: MPL-2.0

package workspace

import (
	"path/filepath"
	"testing"

	"github.com/benchtune/benchtune/internal/testutil"
)

func TestBuildModuleIndex_CreatesMissingDirectory(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "tuning")
	ix, err := BuildModuleIndex(dir)
	if err != nil {
		t.Fatalf("BuildModuleIndex() error: %v", err)
	}
	if ix.Len() != 0 {
		t.Errorf("Len() = %d, want 0", ix.Len())
	}
	if !testutil.Exists(dir) {
		t.Error("tuning directory was not created")
	}
}

func TestBuildModuleIndex_FirstWins(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	first := testutil.MustWriteFile(t, root, "a/bin/Release/go1.25/Shared.Benchmarks.so", "a")
	testutil.MustWriteFile(t, root, "b/bin/Release/go1.25/shared.benchmarks.so", "b")
	other := testutil.MustWriteFile(t, root, "b/bin/Release/go1.25/Other.so", "c")
	testutil.MustWriteFile(t, root, "b/readme.txt", "not a module")

	ix, err := BuildModuleIndex(root)
	if err != nil {
		t.Fatal(err)
	}
	if ix.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", ix.Len())
	}

	got, ok := ix.Lookup("SHARED.Benchmarks")
	if !ok || got != first {
		t.Errorf("Lookup(Shared) = %q, %v, want %q (first in walk order)", got, ok, first)
	}
	if got, ok := ix.Lookup("other"); !ok || got != other {
		t.Errorf("Lookup(other) = %q, %v", got, ok)
	}
	if _, ok := ix.Lookup("readme"); ok {
		t.Error("non-module file was indexed")
	}
}

func TestModuleIndex_NilIsEmpty(t *testing.T) {
	t.Parallel()

	var ix *ModuleIndex
	if _, ok := ix.Lookup("x"); ok || ix.Len() != 0 || ix.Root() != "" {
		t.Error("nil index should behave as empty")
	}
}

// SPDX-License-Identifier: MPL-2.0

package workspace

import (
	"testing"

	"github.com/benchtune/benchtune/internal/testutil"
	"github.com/benchtune/benchtune/pkg/types"
)

const testTarget = "go1.25"

func testOptions(repo string) Options {
	opts := DefaultOptions(repo)
	opts.TargetIdentifier = testTarget
	return opts
}

func releasePath(project, file string) string {
	return "tuning/" + project + "/bin/Release/" + testTarget + "/" + file
}

func debugPath(project, file string) string {
	return "tuning/" + project + "/bin/Debug/" + testTarget + "/" + file
}

// newTestWorkspace returns a workspace over a fresh temp repository with
// its own runtime and resolver, so tests can run in parallel.
func newTestWorkspace(t *testing.T, mutate func(*Options)) (*Workspace, *testutil.FakeRuntime, string) {
	t.Helper()
	repo := t.TempDir()
	opts := testOptions(repo)
	if mutate != nil {
		mutate(&opts)
	}
	rt := testutil.NewFakeRuntime()
	ws, err := New(opts, WithRuntime(rt), WithResolver(NewFallbackResolver(nil)))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return ws, rt, repo
}

func mustRepoPath(t *testing.T, p types.FilesystemPath) string {
	t.Helper()
	if p.IsBlank() {
		t.Fatal("path is blank")
	}
	return p.String()
}

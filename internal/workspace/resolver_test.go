// SPDX-License-Identifier: MPL-2.0

package workspace

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/benchtune/benchtune/internal/modhost"
	"github.com/benchtune/benchtune/internal/testutil"
)

func TestFallbackResolver_InstallsOnceUnderConcurrency(t *testing.T) {
	t.Parallel()

	rt := testutil.NewFakeRuntime()
	r := NewFallbackResolver(nil)

	const callers = 32
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		installed int
	)
	for range callers {
		wg.Go(func() {
			if r.Install(rt) {
				mu.Lock()
				installed++
				mu.Unlock()
			}
		})
	}
	wg.Wait()

	if installed != 1 {
		t.Errorf("Install() reported success %d times, want 1", installed)
	}
	if rt.HookSets() != 1 {
		t.Errorf("SetResolveHook called %d times, want 1", rt.HookSets())
	}
	if !r.Installed() {
		t.Error("Installed() = false")
	}
}

func TestFallbackResolver_RepeatedDiscoveryInstallsOnce(t *testing.T) {
	t.Parallel()

	ws, rt, repo := newTestWorkspace(t, nil)
	testutil.ModuleFixture(t, repo, releasePath("parser", "Parser.Benchmarks.so"))

	for range 3 {
		if _, err := ws.LoadBenchmarkModules(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if rt.HookSets() != 1 {
		t.Errorf("SetResolveHook called %d times, want 1", rt.HookSets())
	}
}

func TestFallbackResolver_ResolvesTransitiveModule(t *testing.T) {
	t.Parallel()

	ws, rt, repo := newTestWorkspace(t, nil)
	testutil.ModuleFixture(t, repo, releasePath("parser", "Parser.Benchmarks.so"))
	// Not a benchmark module, so discovery does not load it; only the
	// fallback hook can.
	dep := testutil.ModuleFixture(t, repo, releasePath("parser", "Parser.Support.so"))

	if _, err := ws.LoadBenchmarkModules(context.Background()); err != nil {
		t.Fatal(err)
	}

	m, ok := rt.Resolve("parser.support")
	if !ok {
		t.Fatal("Resolve(parser.support) declined")
	}
	if m.Path() != dep {
		t.Errorf("resolved path = %q, want %q", m.Path(), dep)
	}

	again, ok := rt.Resolve("Parser.Support")
	if !ok || again != m {
		t.Error("second resolution did not return the loaded module")
	}
}

func TestFallbackResolver_Declines(t *testing.T) {
	t.Parallel()

	t.Run("before install", func(t *testing.T) {
		t.Parallel()
		r := NewFallbackResolver(nil)
		if _, ok := r.Resolve("anything"); ok {
			t.Error("uninstalled resolver resolved a module")
		}
	})

	t.Run("missing name", func(t *testing.T) {
		t.Parallel()
		ws, rt, repo := newTestWorkspace(t, nil)
		testutil.ModuleFixture(t, repo, releasePath("parser", "Parser.Benchmarks.so"))
		if _, err := ws.LoadBenchmarkModules(context.Background()); err != nil {
			t.Fatal(err)
		}
		if _, ok := rt.Resolve("Unknown.Module"); ok {
			t.Error("resolved a name that is not indexed")
		}
	})

	t.Run("deleted file", func(t *testing.T) {
		t.Parallel()
		ws, rt, repo := newTestWorkspace(t, nil)
		testutil.ModuleFixture(t, repo, releasePath("parser", "Parser.Benchmarks.so"))
		dep := testutil.ModuleFixture(t, repo, releasePath("parser", "Gone.so"))
		if _, err := ws.LoadBenchmarkModules(context.Background()); err != nil {
			t.Fatal(err)
		}
		if err := os.Remove(dep); err != nil {
			t.Fatal(err)
		}
		if _, ok := rt.Resolve("Gone"); ok {
			t.Error("resolved a module whose file was deleted")
		}
	})

	t.Run("load failure", func(t *testing.T) {
		t.Parallel()
		ws, rt, repo := newTestWorkspace(t, nil)
		testutil.ModuleFixture(t, repo, releasePath("parser", "Parser.Benchmarks.so"))
		dep := testutil.ModuleFixture(t, repo, releasePath("parser", "Refused.so"))
		rt.FailLoad = func(path string) bool { return path == dep }
		if _, err := ws.LoadBenchmarkModules(context.Background()); err != nil {
			t.Fatal(err)
		}
		if _, ok := rt.Resolve("Refused"); ok {
			t.Error("resolved a module whose load failed")
		}
	})
}

type panickingRuntime struct {
	*testutil.FakeRuntime
}

func (panickingRuntime) Identify(string) (modhost.Identity, error) {
	panic("identify exploded")
}

func TestFallbackResolver_RecoversPanics(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.MustWriteFile(t, root, "x/Boom.so", "")
	ix, err := BuildModuleIndex(root)
	if err != nil {
		t.Fatal(err)
	}

	r := NewFallbackResolver(nil)
	r.Publish(ix)
	r.Install(panickingRuntime{testutil.NewFakeRuntime()})

	m, ok := r.Resolve("Boom")
	if ok || m != nil {
		t.Errorf("Resolve() = %v, %v, want decline after panic", m, ok)
	}
}

func TestFallbackResolver_UsesLatestSnapshot(t *testing.T) {
	t.Parallel()

	rootA, rootB := t.TempDir(), t.TempDir()
	testutil.ModuleFixture(t, rootA, "Alpha.so")
	beta := testutil.ModuleFixture(t, rootB, "Beta.so")

	ixA, err := BuildModuleIndex(rootA)
	if err != nil {
		t.Fatal(err)
	}
	ixB, err := BuildModuleIndex(rootB)
	if err != nil {
		t.Fatal(err)
	}

	rt := testutil.NewFakeRuntime()
	r := NewFallbackResolver(nil)
	r.Publish(ixA)
	r.Install(rt)
	r.Publish(ixB)

	if _, ok := r.Resolve("Alpha"); ok {
		t.Error("resolved a name from a replaced snapshot")
	}
	m, ok := r.Resolve("Beta")
	if !ok || m.Path() != beta {
		t.Errorf("Resolve(Beta) = %v, %v", m, ok)
	}
	if filepath.Dir(m.Path()) != rootB {
		t.Errorf("resolved outside the latest snapshot: %s", m.Path())
	}
}

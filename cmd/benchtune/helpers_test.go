// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/benchtune/benchtune/internal/engine"
	"github.com/benchtune/benchtune/internal/modhost"
	"github.com/benchtune/benchtune/internal/testutil"
	"github.com/benchtune/benchtune/internal/workspace"
	"github.com/benchtune/benchtune/pkg/bench"
)

const (
	testTarget = "go1.25"

	defaultTestConfig = `workspace: {
	target_identifier: "go1.25"
	build_mode:        "release"
}
engine: {
	exporters: ["github", "json"]
	count:     1
}
`
)

type testEnv struct {
	app    *App
	rt     *testutil.FakeRuntime
	repo   string
	stdout *bytes.Buffer
	stderr *bytes.Buffer

	mu     sync.Mutex
	reruns [][]string
}

func noopBench(b *testing.B) {
	for b.Loop() {
	}
}

func parserSuites() []bench.Suite {
	return []bench.Suite{
		{Name: "ParserBenchmark", Benchmarks: []bench.Benchmark{
			{Name: "ParseSmall", F: noopBench},
			{Name: "ParseLarge", F: noopBench},
		}},
		{Name: "TokenizerBenchmark", Benchmarks: []bench.Benchmark{
			{Name: "Tokenize", F: noopBench},
		}},
	}
}

func fixedBenchmark(func(b *testing.B)) testing.BenchmarkResult {
	return testing.BenchmarkResult{N: 1000, T: time.Millisecond, MemBytes: 64000, MemAllocs: 2000}
}

// newTestEnv returns an App over a fresh repository whose working-directory
// config file holds cueConfig. Every loaded module exports parserSuites.
func newTestEnv(t *testing.T, cueConfig string) *testEnv {
	t.Helper()

	repo := t.TempDir()
	testutil.MustMkdirAll(t, filepath.Join(repo, ".git"))
	if cueConfig != "" {
		testutil.MustWriteFile(t, repo, "benchtune.cue", cueConfig)
	}

	rt := testutil.NewFakeRuntime()
	rt.Symbols = func(string) map[string]any {
		suites := parserSuites()
		return map[string]any{bench.SuitesSymbol: &suites}
	}

	env := &testEnv{rt: rt, repo: repo, stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}
	app, err := NewApp(Dependencies{
		Runtime:         rt,
		Resolver:        workspace.NewFallbackResolver(nil),
		EngineOptions:   []engine.Option{engine.WithBenchmarkFunc(fixedBenchmark)},
		ConfigDir:       t.TempDir(),
		Getwd:           func() (string, error) { return repo, nil },
		DetectBuildMode: func() modhost.BuildMode { return modhost.BuildModeRelease },
		Rerun: func(_ context.Context, args []string) error {
			env.mu.Lock()
			defer env.mu.Unlock()
			env.reruns = append(env.reruns, args)
			return nil
		},
		Stdout: env.stdout,
		Stderr: env.stderr,
	})
	if err != nil {
		t.Fatalf("NewApp() error: %v", err)
	}
	env.app = app
	return env
}

// execute runs the command tree with args.
func (e *testEnv) execute(t *testing.T, args ...string) error {
	t.Helper()
	root := NewRootCommand(e.app)
	root.SetArgs(args)
	root.SetOut(e.stdout)
	root.SetErr(e.stderr)
	return root.ExecuteContext(t.Context())
}

// addPlugin writes a plugin fixture into the release output of project.
func (e *testEnv) addPlugin(t *testing.T, project, file string) string {
	t.Helper()
	return testutil.ModuleFixture(t, e.repo, "tuning/"+project+"/bin/Release/"+testTarget+"/"+file)
}

func (e *testEnv) archive() string {
	return filepath.Join(e.repo, "reports", "tuning")
}

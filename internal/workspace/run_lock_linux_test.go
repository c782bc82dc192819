// SPDX-License-Identifier: MPL-2.0

//go:build linux

package workspace

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/benchtune/benchtune/internal/testutil"
)

func TestRunLockSerializes(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), LockFileName)
	first, err := AcquireRunLock(path)
	if err != nil {
		t.Fatalf("AcquireRunLock() error: %v", err)
	}

	acquired := make(chan *RunLock)
	go func() {
		second, err := AcquireRunLock(path)
		if err != nil {
			t.Errorf("second AcquireRunLock() error: %v", err)
			close(acquired)
			return
		}
		acquired <- second
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while the first was held")
	case <-time.After(50 * time.Millisecond):
	}

	first.Release()
	first.Release()

	select {
	case second := <-acquired:
		second.Release()
	case <-time.After(5 * time.Second):
		t.Fatal("second lock not acquired after release")
	}
}

func TestWorkspaceRunLockCoversReconcile(t *testing.T) {
	t.Parallel()

	first, _, repo := newTestWorkspace(t, nil)
	second, err := New(testOptions(repo), WithRuntime(testutil.NewFakeRuntime()), WithResolver(NewFallbackResolver(nil)))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	lock, err := first.AcquireRunLock()
	if err != nil {
		t.Fatalf("AcquireRunLock() error: %v", err)
	}
	lockPath := filepath.Join(repo, "reports", LockFileName)
	if !testutil.Exists(lockPath) {
		t.Fatalf("lock file %s not created next to results", lockPath)
	}
	testutil.MustWriteFile(t, first.ResultsPath(), "Parser.Benchmarks.ParserBenchmark-report-github.md", "first")

	// The second run writes its results only once it holds the lock.
	done := make(chan error, 1)
	go func() {
		l, err := second.AcquireRunLock()
		if err != nil {
			done <- err
			return
		}
		defer l.Release()
		if err := os.MkdirAll(second.ResultsPath(), 0o755); err != nil {
			done <- err
			return
		}
		done <- os.WriteFile(filepath.Join(second.ResultsPath(), "Lexer.Benchmarks.LexerBenchmark-report-github.md"), []byte("second"), 0o644)
	}()

	select {
	case err := <-done:
		t.Fatalf("second run proceeded while the first held the lock: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	if err := first.PostProcessArtifacts(); err != nil {
		t.Fatalf("PostProcessArtifacts() error: %v", err)
	}
	lock.Release()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("second run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("second run never acquired the lock")
	}

	if !testutil.Exists(filepath.Join(second.ResultsPath(), "Lexer.Benchmarks.LexerBenchmark-report-github.md")) {
		t.Error("second run's results removed by the first run's reconcile")
	}
	if testutil.Exists(filepath.Join(first.ReportsTuningPath(), "Lexer.Benchmarks.LexerBenchmark-report-github.md")) {
		t.Error("second run's report archived by the first run")
	}
	if !testutil.Exists(filepath.Join(first.ReportsTuningPath(), "Parser.Benchmarks.ParserBenchmark-report-github.md")) {
		t.Error("first run's report not archived")
	}
	if !testutil.Exists(lockPath) {
		t.Error("reconcile removed the lock file")
	}
}

// SPDX-License-Identifier: MPL-2.0

package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/benchtune/benchtune/internal/testutil"
)

func TestReconcile_MissingResultsIsNoOp(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	archive := filepath.Join(root, "tuning")

	if err := Reconcile(filepath.Join(root, "results"), archive); err != nil {
		t.Fatalf("Reconcile() = %v, want nil", err)
	}
	if testutil.Exists(archive) {
		t.Error("archive directory created for a missing results directory")
	}
}

func TestReconcile_MovesAndOverwrites(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	results := filepath.Join(root, "results")
	archive := filepath.Join(root, "tuning")

	testutil.MustWriteFile(t, results, "Parser.Benchmarks.ParserBenchmark-report-github.md", "new")
	testutil.MustWriteFile(t, results, "Lexer.Benchmarks.LexerBenchmark-report.json", "{}")
	testutil.MustWriteFile(t, archive, "Parser.Benchmarks.ParserBenchmark-report-github.md", "old")
	testutil.MustWriteFile(t, archive, "Untouched-report-github.md", "keep")

	if err := Reconcile(results, archive); err != nil {
		t.Fatalf("Reconcile() = %v", err)
	}

	if got := testutil.MustReadFile(t, filepath.Join(archive, "Parser.Benchmarks.ParserBenchmark-report-github.md")); got != "new" {
		t.Errorf("overwritten report = %q, want %q", got, "new")
	}
	if !testutil.Exists(filepath.Join(archive, "Lexer.Benchmarks.LexerBenchmark-report.json")) {
		t.Error("new report not moved into archive")
	}
	if got := testutil.MustReadFile(t, filepath.Join(archive, "Untouched-report-github.md")); got != "keep" {
		t.Errorf("unrelated archive file changed: %q", got)
	}
	if testutil.Exists(results) {
		t.Error("results directory still exists")
	}
}

func TestReconcile_RemovesNestedResults(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	results := filepath.Join(root, "results")
	archive := filepath.Join(root, "tuning")

	testutil.MustWriteFile(t, results, "top-report-github.md", "top")
	testutil.MustWriteFile(t, results, "logs/deep/nested/run.log", "log")

	if err := Reconcile(results, archive); err != nil {
		t.Fatal(err)
	}
	if testutil.Exists(results) {
		t.Error("results directory with nested subdirectories was not removed")
	}
	if testutil.Exists(filepath.Join(archive, "logs")) || testutil.Exists(filepath.Join(archive, "run.log")) {
		t.Error("nested content was archived; only top-level files move")
	}
	if !testutil.Exists(filepath.Join(archive, "top-report-github.md")) {
		t.Error("top-level report not archived")
	}
}

func TestReconcile_SkipsLockFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	results := filepath.Join(root, "results")
	archive := filepath.Join(root, "tuning")

	testutil.MustWriteFile(t, results, "benchtune.lock", "")
	testutil.MustWriteFile(t, results, "A.B.CBenchmark-report-github.md", "r")

	if err := Reconcile(results, archive); err != nil {
		t.Fatal(err)
	}
	if testutil.Exists(filepath.Join(archive, "benchtune.lock")) {
		t.Error("lock file was archived")
	}
	entries, err := os.ReadDir(archive)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("archive has %d entries, want 1", len(entries))
	}
}

func TestReconcile_ResultsIsFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	results := testutil.MustWriteFile(t, root, "results", "oops")

	if err := Reconcile(results, filepath.Join(root, "tuning")); err == nil {
		t.Error("Reconcile() with a file as results path should fail")
	}
}

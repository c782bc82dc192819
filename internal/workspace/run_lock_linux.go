// SPDX-License-Identifier: MPL-2.0

//go:build linux

package workspace

import (
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sys/unix"
)

// LockFileName sits next to the results directory, never inside it: Reconcile
// removes results/ and would unlink a lock file held by another process.
const LockFileName = "benchtune.lock"

// RunLock holds a blocking exclusive flock that serializes benchtune
// processes sharing an artifacts directory. The kernel releases the flock when
// the fd is closed, including on crash.
type RunLock struct {
	file *os.File
}

// AcquireRunLock opens (or creates) the lock file at path and blocks until
// the exclusive flock is held.
func AcquireRunLock(path string) (*RunLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file %s: %w", path, err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("flock %s: %w", path, err)
	}

	return &RunLock{file: f}, nil
}

// Release unlocks and closes the lock file. Subsequent calls are no-ops.
func (l *RunLock) Release() {
	if l == nil || l.file == nil {
		return
	}
	if err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN); err != nil {
		slog.Debug("flock unlock failed", "error", err)
	}
	if err := l.file.Close(); err != nil {
		slog.Debug("lock file close failed", "error", err)
	}
	l.file = nil
}

// SPDX-License-Identifier: MPL-2.0

//go:build !linux

package workspace

import "sync"

// LockFileName sits next to the results directory, never inside it.
const LockFileName = "benchtune.lock"

//nolint:gochecknoglobals // In-process fallback for platforms without flock.
var runMu sync.Mutex

// RunLock serializes runs within this process only.
type RunLock struct {
	held bool
}

// AcquireRunLock blocks until no other run in this process holds the lock.
func AcquireRunLock(string) (*RunLock, error) {
	runMu.Lock()
	return &RunLock{held: true}, nil
}

// Release unlocks the in-process mutex. Subsequent calls are no-ops.
func (l *RunLock) Release() {
	if l == nil || !l.held {
		return
	}
	l.held = false
	runMu.Unlock()
}

// SPDX-License-Identifier: MPL-2.0

package workspace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// lockExt marks lock files, which stay out of the archive.
const lockExt = ".lock"

// Reconcile moves every report file directly under resultsPath into
// archivePath, replacing files with the same name, then removes resultsPath
// recursively. A missing resultsPath is a no-op. The first failure is
// returned; files moved before it stay moved.
func Reconcile(resultsPath, archivePath string) error {
	info, err := os.Stat(resultsPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("inspect results %s: %w", resultsPath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("results path %s is not a directory", resultsPath)
	}

	if err := os.MkdirAll(archivePath, 0o755); err != nil {
		return fmt.Errorf("create archive %s: %w", archivePath, err)
	}

	entries, err := os.ReadDir(resultsPath)
	if err != nil {
		return fmt.Errorf("read results %s: %w", resultsPath, err)
	}
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.EqualFold(filepath.Ext(e.Name()), lockExt) {
			continue
		}
		src := filepath.Join(resultsPath, e.Name())
		dst := filepath.Join(archivePath, e.Name())
		if err := moveFile(src, dst); err != nil {
			return err
		}
	}

	if err := os.RemoveAll(resultsPath); err != nil {
		return fmt.Errorf("remove results %s: %w", resultsPath, err)
	}
	return nil
}

func moveFile(src, dst string) error {
	if err := os.Remove(dst); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("replace %s: %w", dst, err)
	}
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return fmt.Errorf("move %s: %w", src, err)
	}
	if err := copyFile(src, dst); err != nil {
		return fmt.Errorf("move %s across devices: %w", src, err)
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("remove %s after copy: %w", src, err)
	}
	return nil
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	_, err = io.Copy(out, in)
	return err
}

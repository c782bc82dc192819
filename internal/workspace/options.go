// SPDX-License-Identifier: MPL-2.0

package workspace

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/benchtune/benchtune/internal/modhost"
	"github.com/benchtune/benchtune/pkg/types"
)

const (
	// DefaultTuningFolder is the folder holding plugin builds and, under the
	// reports folder, the archived reports.
	DefaultTuningFolder FolderName = "tuning"
	// DefaultReportsFolder is the folder that receives engine output.
	DefaultReportsFolder FolderName = "reports"
	// DefaultModuleSuffix selects benchmark plugins by file name.
	DefaultModuleSuffix ModuleSuffix = "Benchmarks"
)

var (
	// ErrInvalidFolderName is the sentinel error wrapped by InvalidFolderNameError.
	ErrInvalidFolderName = errors.New("invalid folder name")
	// ErrInvalidModuleSuffix is the sentinel error wrapped by InvalidModuleSuffixError.
	ErrInvalidModuleSuffix = errors.New("invalid module suffix")
	// ErrInvalidTargetIdentifier is the sentinel error wrapped by InvalidTargetIdentifierError.
	ErrInvalidTargetIdentifier = errors.New("invalid target identifier")
)

type (
	// FolderName is a folder path relative to the repository root.
	FolderName string

	// ModuleSuffix is the file name suffix (before .so) that marks benchmark modules.
	ModuleSuffix string

	// TargetIdentifier names the toolchain/platform variant of a build,
	// such as "go1.25".
	TargetIdentifier string

	// InvalidFolderNameError is returned for blank or absolute folder names.
	InvalidFolderNameError struct {
		Field string
		Value FolderName
	}

	// InvalidModuleSuffixError is returned for blank suffixes or suffixes
	// containing path separators.
	InvalidModuleSuffixError struct {
		Value ModuleSuffix
	}

	// InvalidTargetIdentifierError is returned for blank target identifiers.
	InvalidTargetIdentifierError struct {
		Value TargetIdentifier
	}

	// Options configures a Workspace. Options are immutable once validated;
	// PostConfigure returns a completed copy.
	Options struct {
		RepositoryPath            types.FilesystemPath
		TuningFolder              FolderName
		ReportsFolder             FolderName
		ModuleSuffix              ModuleSuffix
		TargetIdentifier          TargetIdentifier
		AllowDebugBuild           bool
		ArtifactsPath             types.FilesystemPath
		SkipBenchmarksWithReports bool
	}
)

// DefaultOptions returns options rooted at repositoryPath with every other
// field at its default. The target identifier is the running toolchain's.
func DefaultOptions(repositoryPath string) Options {
	return Options{
		RepositoryPath:   types.FilesystemPath(repositoryPath),
		TuningFolder:     DefaultTuningFolder,
		ReportsFolder:    DefaultReportsFolder,
		ModuleSuffix:     DefaultModuleSuffix,
		TargetIdentifier: TargetIdentifier(modhost.CurrentTarget()),
	}
}

// String returns the folder name.
func (f FolderName) String() string { return string(f) }

// IsValid returns whether the folder name is non-blank and relative.
func (f FolderName) IsValid() (bool, []error) {
	if strings.TrimSpace(string(f)) == "" || filepath.IsAbs(string(f)) {
		return false, []error{&InvalidFolderNameError{Value: f}}
	}
	return true, nil
}

// String returns the suffix.
func (s ModuleSuffix) String() string { return string(s) }

// IsValid returns whether the suffix is non-blank and a single file name fragment.
func (s ModuleSuffix) IsValid() (bool, []error) {
	v := string(s)
	if strings.TrimSpace(v) == "" || strings.ContainsAny(v, `/\`) {
		return false, []error{&InvalidModuleSuffixError{Value: s}}
	}
	return true, nil
}

// String returns the identifier.
func (t TargetIdentifier) String() string { return string(t) }

// IsValid returns whether the identifier is non-blank.
func (t TargetIdentifier) IsValid() (bool, []error) {
	if strings.TrimSpace(string(t)) == "" {
		return false, []error{&InvalidTargetIdentifierError{Value: t}}
	}
	return true, nil
}

// Error implements the error interface.
func (e *InvalidFolderNameError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: invalid folder name %q: must be a non-empty relative path", e.Field, e.Value)
	}
	return fmt.Sprintf("invalid folder name %q: must be a non-empty relative path", e.Value)
}

// Unwrap returns ErrInvalidFolderName for errors.Is() compatibility.
func (e *InvalidFolderNameError) Unwrap() error { return ErrInvalidFolderName }

// Error implements the error interface.
func (e *InvalidModuleSuffixError) Error() string {
	return fmt.Sprintf("invalid module suffix %q: must be a non-empty file name fragment", e.Value)
}

// Unwrap returns ErrInvalidModuleSuffix for errors.Is() compatibility.
func (e *InvalidModuleSuffixError) Unwrap() error { return ErrInvalidModuleSuffix }

// Error implements the error interface.
func (e *InvalidTargetIdentifierError) Error() string {
	return fmt.Sprintf("invalid target identifier %q: must be non-empty", e.Value)
}

// Unwrap returns ErrInvalidTargetIdentifier for errors.Is() compatibility.
func (e *InvalidTargetIdentifierError) Unwrap() error { return ErrInvalidTargetIdentifier }

// Validate checks every field and returns an *InvalidConfigurationError
// listing all problems. It does not touch the filesystem.
func (o Options) Validate() error {
	var errs []error
	if ok, fieldErrs := o.RepositoryPath.IsValid(); !ok {
		for _, fe := range fieldErrs {
			errs = append(errs, fmt.Errorf("repository path: %w", fe))
		}
	}
	for _, f := range []struct {
		field string
		value FolderName
	}{
		{"tuning folder", o.TuningFolder},
		{"reports folder", o.ReportsFolder},
	} {
		if ok, _ := f.value.IsValid(); !ok {
			errs = append(errs, &InvalidFolderNameError{Field: f.field, Value: f.value})
		}
	}
	if ok, fieldErrs := o.ModuleSuffix.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if ok, fieldErrs := o.TargetIdentifier.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if o.ArtifactsPath != "" && o.ArtifactsPath.IsBlank() {
		errs = append(errs, fmt.Errorf("artifacts path: %w", &types.InvalidFilesystemPathError{Value: o.ArtifactsPath}))
	}
	if len(errs) > 0 {
		return &InvalidConfigurationError{FieldErrors: errs}
	}
	return nil
}

// PostConfigure validates the options and returns a copy with an absolute
// RepositoryPath and a resolved ArtifactsPath (RepositoryPath/ReportsFolder
// unless explicitly set).
func (o Options) PostConfigure() (Options, error) {
	if err := o.Validate(); err != nil {
		return Options{}, err
	}

	repo, err := o.RepositoryPath.Abs()
	if err != nil {
		return Options{}, &InvalidConfigurationError{FieldErrors: []error{err}}
	}
	o.RepositoryPath = repo

	if o.ArtifactsPath == "" {
		o.ArtifactsPath = repo.Join(o.ReportsFolder.String())
	} else if !filepath.IsAbs(o.ArtifactsPath.String()) {
		o.ArtifactsPath = repo.Join(o.ArtifactsPath.String())
	}
	return o, nil
}

// BuildMode returns the build mode selected by AllowDebugBuild.
func (o Options) BuildMode() modhost.BuildMode { return BuildMode(o.AllowDebugBuild) }

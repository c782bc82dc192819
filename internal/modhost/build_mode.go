// SPDX-License-Identifier: MPL-2.0

package modhost

import (
	"go/version"
	"runtime"
	"runtime/debug"
	"strings"
)

const (
	// BuildModeDebug names output directories of unoptimized builds.
	BuildModeDebug BuildMode = "Debug"
	// BuildModeRelease names output directories of optimized builds.
	BuildModeRelease BuildMode = "Release"
)

// readBuildInfo is a test seam for debug.ReadBuildInfo.
//
//nolint:gochecknoglobals // Test seam requires a package-level variable.
var readBuildInfo = debug.ReadBuildInfo

// BuildMode is the build flavor segment used in build output paths.
type BuildMode string

// String returns the directory segment for the mode.
func (m BuildMode) String() string { return string(m) }

// ModeFor maps the allow-debug switch to a BuildMode.
func ModeFor(allowDebug bool) BuildMode {
	if allowDebug {
		return BuildModeDebug
	}
	return BuildModeRelease
}

// DetectBuildMode reports the build flavor of the running binary.
// A binary compiled with optimizations disabled (-gcflags containing -N)
// is a Debug build; everything else, including binaries without build
// information, is Release.
func DetectBuildMode() BuildMode {
	bi, ok := readBuildInfo()
	if !ok || bi == nil {
		return BuildModeRelease
	}
	for _, s := range bi.Settings {
		if s.Key != "-gcflags" {
			continue
		}
		for f := range strings.FieldsSeq(s.Value) {
			// Flags may carry a package pattern prefix such as all=-N.
			if _, after, found := strings.Cut(f, "="); found {
				f = after
			}
			if f == "-N" {
				return BuildModeDebug
			}
		}
	}
	return BuildModeRelease
}

// CurrentTarget returns the target identifier of the running toolchain, the
// Go language version such as "go1.25". Plugins only load into a host built
// by the same toolchain, so this is the natural default.
func CurrentTarget() string {
	if lang := version.Lang(runtime.Version()); lang != "" {
		return lang
	}
	return runtime.Version()
}

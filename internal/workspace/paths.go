// SPDX-License-Identifier: MPL-2.0

package workspace

import (
	"path/filepath"
	"strings"

	"github.com/benchtune/benchtune/internal/modhost"
)

const (
	binFolder     = "bin"
	resultsFolder = "results"
)

// TuningDirectory returns RepositoryPath/TuningFolder.
func TuningDirectory(opts Options) string {
	return filepath.Join(opts.RepositoryPath.String(), opts.TuningFolder.String())
}

// BuildMode maps the debug switch to its directory name.
func BuildMode(allowDebug bool) modhost.BuildMode { return modhost.ModeFor(allowDebug) }

// BuildOutputSegment returns bin/<Debug|Release>/<target>.
func BuildOutputSegment(opts Options) string {
	return filepath.Join(binFolder, BuildMode(opts.AllowDebugBuild).String(), opts.TargetIdentifier.String())
}

// ResultsPath returns the transient engine output directory.
func ResultsPath(artifactsPath string) string {
	return filepath.Join(artifactsPath, resultsFolder)
}

// ArchivePath returns the durable report archive directory.
func ArchivePath(artifactsPath, tuningFolder string) string {
	return filepath.Join(artifactsPath, tuningFolder)
}

// containsSegment reports whether dir contains segment as a substring.
// Both separators are accepted and case is ignored, so a segment ending in
// "net10.0" also matches a "net10.0-windows" output directory.
func containsSegment(dir, segment string) bool {
	norm := func(p string) string {
		return strings.ToLower(strings.ReplaceAll(p, `\`, "/"))
	}
	return strings.Contains(norm(dir)+"/", strings.Trim(norm(segment), "/"))
}

// SPDX-License-Identifier: MPL-2.0

package modhost

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestModeFor(t *testing.T) {
	t.Parallel()

	if got := ModeFor(true); got != BuildModeDebug {
		t.Errorf("ModeFor(true) = %q, want %q", got, BuildModeDebug)
	}
	if got := ModeFor(false); got != BuildModeRelease {
		t.Errorf("ModeFor(false) = %q, want %q", got, BuildModeRelease)
	}
}

func TestDetectBuildMode(t *testing.T) {
	// Not parallel: subtests mutate package-level readBuildInfo.
	tests := []struct {
		name string
		info *debug.BuildInfo
		ok   bool
		want BuildMode
	}{
		{name: "no build info", ok: false, want: BuildModeRelease},
		{name: "no gcflags", info: &debug.BuildInfo{}, ok: true, want: BuildModeRelease},
		{
			name: "optimizations disabled",
			info: &debug.BuildInfo{Settings: []debug.BuildSetting{{Key: "-gcflags", Value: "all=-N -l"}}},
			ok:   true,
			want: BuildModeDebug,
		},
		{
			name: "bare -N",
			info: &debug.BuildInfo{Settings: []debug.BuildSetting{{Key: "-gcflags", Value: "-N"}}},
			ok:   true,
			want: BuildModeDebug,
		},
		{
			name: "unrelated gcflags",
			info: &debug.BuildInfo{Settings: []debug.BuildSetting{{Key: "-gcflags", Value: "-m"}}},
			ok:   true,
			want: BuildModeRelease,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saved := readBuildInfo
			t.Cleanup(func() { readBuildInfo = saved })
			readBuildInfo = func() (*debug.BuildInfo, bool) { return tt.info, tt.ok }

			if got := DetectBuildMode(); got != tt.want {
				t.Errorf("DetectBuildMode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCurrentTarget(t *testing.T) {
	t.Parallel()

	got := CurrentTarget()
	if !strings.HasPrefix(got, "go") && !strings.Contains(got, "devel") {
		t.Errorf("CurrentTarget() = %q, want a Go version", got)
	}
}

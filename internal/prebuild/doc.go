// SPDX-License-Identifier: MPL-2.0

// Package prebuild runs the user's build script that compiles benchmark
// plugins into the tuning tree.
//
// Scripts are interpreted in-process by mvdan.cc/sh, so the same POSIX
// script works on every platform benchtune runs on. External commands
// (go, make) resolve through PATH as usual. The script sees the host
// environment plus BENCHTUNE_* variables describing where the plugins are
// expected to land.
package prebuild

// SPDX-License-Identifier: MPL-2.0

// Package watch reruns benchmarks when plugin binaries change.
//
// A Watcher monitors the tuning tree with fsnotify and reports batches of
// changed plugin paths after a quiet period, so a build that rewrites many
// plugins triggers one rerun instead of one per file.
package watch

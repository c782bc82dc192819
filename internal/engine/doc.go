// SPDX-License-Identifier: MPL-2.0

// Package engine runs the benchmark suites exported by loaded modules and
// writes one report per suite and exporter into a results directory.
//
// Benchmarks run in-process through testing.Benchmark. Each benchmark is
// repeated Config.Count times; reports carry the mean ns/op and the
// minimum, median and maximum across repeats, plus allocation figures.
package engine

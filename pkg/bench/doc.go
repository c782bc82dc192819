// SPDX-License-Identifier: MPL-2.0

// Package bench is the contract between benchmark plugins and the benchtune host.
//
// A benchmark plugin is a Go plugin (built with -buildmode=plugin) whose main
// package exports a variable named Suites of type []bench.Suite:
//
//	var Suites = []bench.Suite{
//		{
//			Name: "ParserBenchmark",
//			Benchmarks: []bench.Benchmark{
//				{Name: "Parse", F: benchmarkParse},
//			},
//		},
//	}
//
// The host looks the variable up by SuitesSymbol; plugin.Lookup yields a
// *[]bench.Suite for exported variables.
package bench

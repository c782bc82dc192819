// SPDX-License-Identifier: MPL-2.0

// Package benchmark holds benchmarks for benchtune's own hot paths:
//   - module index construction over large tuning trees
//   - candidate discovery and identity reading
//   - artifact reconciliation into the report archive
//   - report export in every supported format
//
// They also serve as the input for a PGO profile:
//
//	go test -run=^$ -bench=. -cpuprofile=default.pgo ./internal/benchmark
package benchmark

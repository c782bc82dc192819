// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"slices"
	"strings"
	"testing"
)

type (
	// Report holds the results of one suite run.
	Report struct {
		Module    string   `json:"module" toml:"module" yaml:"module"`
		Suite     string   `json:"suite" toml:"suite" yaml:"suite"`
		BuildMode string   `json:"build_mode" toml:"build_mode" yaml:"build_mode"`
		Target    string   `json:"target" toml:"target" yaml:"target"`
		GoVersion string   `json:"go_version" toml:"go_version" yaml:"go_version"`
		Platform  string   `json:"platform" toml:"platform" yaml:"platform"`
		Count     int      `json:"count" toml:"count" yaml:"count"`
		BenchTime string   `json:"bench_time" toml:"bench_time" yaml:"bench_time"`
		Results   []Result `json:"results" toml:"results" yaml:"results"`
	}

	// Result is the aggregate of one benchmark's repeats. Durations are in
	// nanoseconds per operation.
	Result struct {
		Method      string  `json:"method" toml:"method" yaml:"method"`
		N           int     `json:"n" toml:"n" yaml:"n"`
		NsPerOp     float64 `json:"ns_per_op" toml:"ns_per_op" yaml:"ns_per_op"`
		MinNsPerOp  float64 `json:"min_ns_per_op" toml:"min_ns_per_op" yaml:"min_ns_per_op"`
		MedianNs    float64 `json:"median_ns_per_op" toml:"median_ns_per_op" yaml:"median_ns_per_op"`
		MaxNsPerOp  float64 `json:"max_ns_per_op" toml:"max_ns_per_op" yaml:"max_ns_per_op"`
		BytesPerOp  int64   `json:"bytes_per_op" toml:"bytes_per_op" yaml:"bytes_per_op"`
		AllocsPerOp int64   `json:"allocs_per_op" toml:"allocs_per_op" yaml:"allocs_per_op"`
		Error       string  `json:"error,omitempty" toml:"error,omitempty" yaml:"error,omitempty"`
	}
)

// FullName returns "module.suite".
func (r *Report) FullName() string { return r.Module + "." + r.Suite }

// FileName returns the report file name for ex:
// <module>.<suite>-report<ex.Suffix()>, with '-' in the name replaced by '_'.
func (r *Report) FileName(ex Exporter) string {
	return strings.ReplaceAll(r.FullName(), "-", "_") + "-report" + ex.Suffix()
}

// Failed reports whether any benchmark in the report failed.
func (r *Report) Failed() bool {
	return slices.ContainsFunc(r.Results, func(res Result) bool { return res.Error != "" })
}

// aggregate folds repeated runs of one benchmark into a Result.
func aggregate(method string, runs []testing.BenchmarkResult) Result {
	if len(runs) == 0 {
		return Result{Method: method}
	}

	var (
		totalN      int
		totalNs     int64
		totalBytes  uint64
		totalAllocs uint64
	)
	perOp := make([]float64, 0, len(runs))
	for _, r := range runs {
		totalN += r.N
		totalNs += r.T.Nanoseconds()
		totalBytes += r.MemBytes
		totalAllocs += r.MemAllocs
		perOp = append(perOp, float64(r.T.Nanoseconds())/float64(r.N))
	}
	slices.Sort(perOp)

	return Result{
		Method:      method,
		N:           totalN,
		NsPerOp:     float64(totalNs) / float64(totalN),
		MinNsPerOp:  perOp[0],
		MedianNs:    median(perOp),
		MaxNsPerOp:  perOp[len(perOp)-1],
		BytesPerOp:  int64(totalBytes / uint64(totalN)),
		AllocsPerOp: int64(totalAllocs / uint64(totalN)),
	}
}

// median expects sorted input.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

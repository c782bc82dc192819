// SPDX-License-Identifier: MPL-2.0

package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// suiteNameSuffix marks suite names eligible for report-based skipping.
const suiteNameSuffix = "Benchmark"

// ReportedSuites scans archiveDir and returns the lower-cased suite names
// that have at least one archived report. Report files are named
// <module>.<suite>-<rest>.<ext>; the suite is the last dot-separated segment
// of the extensionless name up to the first '-', or of the whole
// extensionless name when it has no '-'. A missing archive yields an empty
// set.
func ReportedSuites(archiveDir string) (map[string]struct{}, error) {
	entries, err := os.ReadDir(archiveDir)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]struct{}{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read report archive %s: %w", archiveDir, err)
	}

	names := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		stem := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		prefix, _, _ := strings.Cut(stem, "-")
		if prefix == "" {
			continue
		}
		if i := strings.LastIndexByte(prefix, '.'); i >= 0 {
			prefix = prefix[i+1:]
		}
		if prefix != "" {
			names[strings.ToLower(prefix)] = struct{}{}
		}
	}
	return names, nil
}

// SuitesWithReports returns the suites, in input order, whose name ends in
// "Benchmark" and which already have an archived report in archiveDir.
func SuitesWithReports(archiveDir string, suites []string) ([]string, error) {
	reported, err := ReportedSuites(archiveDir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, s := range suites {
		if !strings.HasSuffix(s, suiteNameSuffix) {
			continue
		}
		if _, ok := reported[strings.ToLower(ReportSafeName(s))]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// ReportSafeName replaces '-' so a name can sit in the prefix of a report
// file name without being mistaken for the prefix terminator.
func ReportSafeName(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

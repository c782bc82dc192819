// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// matcher reports whether a "module.suite.benchmark" name is selected.
type matcher func(fullName string) bool

// newMatcher builds a matcher from filters. Filters containing glob
// metacharacters are doublestar patterns; others match as case-insensitive
// substrings. A name is selected when any filter matches.
func newMatcher(filters []string) (matcher, error) {
	var patterns, substrings []string
	for _, f := range filters {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" {
			continue
		}
		if strings.ContainsAny(f, "*?[{") {
			if !doublestar.ValidatePattern(f) {
				return nil, fmt.Errorf("invalid filter pattern %q", f)
			}
			patterns = append(patterns, f)
			continue
		}
		substrings = append(substrings, f)
	}

	if len(patterns) == 0 && len(substrings) == 0 {
		return func(string) bool { return true }, nil
	}

	return func(fullName string) bool {
		name := strings.ToLower(fullName)
		for _, s := range substrings {
			if strings.Contains(name, s) {
				return true
			}
		}
		for _, p := range patterns {
			if ok, _ := doublestar.Match(p, name); ok {
				return true
			}
		}
		return false
	}, nil
}

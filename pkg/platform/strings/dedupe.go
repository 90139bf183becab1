// Package strings provides string list utilities used by configuration parsing.
package strings

import (
	"strings"
)

// DedupeAndTrim removes duplicates and empty strings from a slice,
// trimming whitespace from each element. Order is preserved.
//
// Example:
//
//	DedupeAndTrim([]string{"  foo ", "bar", "foo", "", "  "})
//	// Returns: []string{"foo", "bar"}
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}

// SplitList splits a comma separated value (as found in environment
// variables) and applies DedupeAndTrim. An empty input yields nil.
//
//	SplitList("http://a.test, http://b.test,,http://a.test")
//	// Returns: []string{"http://a.test", "http://b.test"}
func SplitList(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	return DedupeAndTrim(strings.Split(csv, ","))
}

// TrimSuffixAll strips a trailing suffix (such as "/") from each element, in place.
func TrimSuffixAll(values []string, suffix string) []string {
	for i, v := range values {
		values[i] = strings.TrimSuffix(v, suffix)
	}
	return values
}

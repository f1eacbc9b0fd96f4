package utils

import (
	"strings"
	"unicode/utf8"
)

// NormalizeName trims s and reports whether it has at least min characters.
func NormalizeName(s string, min int) (string, bool) {
	trimmed := strings.TrimSpace(s)
	return trimmed, utf8.RuneCountInString(trimmed) >= min
}

// UniqueStrings drops blanks and duplicates while keeping the first occurrence order.
func UniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}

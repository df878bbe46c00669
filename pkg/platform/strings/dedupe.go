// Package strings normalizes user-supplied lists such as notice tags and
// report recipients.
package strings

import (
	"strings"
)

// Dedupe maps every value through normalize and keeps the first occurrence of
// each non-empty result. Order is preserved and the result is never nil.
func Dedupe(values []string, normalize func(string) string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = normalize(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Tags trims and lower-cases free-form labels before deduplicating them.
//
//	Tags([]string{" Roads ", "roads", "", "Night Works"})
//	// []string{"roads", "night works"}
func Tags(values []string) []string {
	return Dedupe(values, func(s string) string {
		return strings.ToLower(strings.TrimSpace(s))
	})
}

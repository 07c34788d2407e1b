// Package strings normalizes user-supplied string lists.
package strings

import "strings"

// Normalize maps each value through fn, drops empty results and duplicates,
// and keeps first-seen order. A nil input stays nil.
func Normalize(values []string, fn func(string) string) []string {
	if values == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = fn(strings.TrimSpace(v))
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

// Lower is Normalize with lower-casing, used for tags and slugs.
func Lower(values []string) []string {
	return Normalize(values, strings.ToLower)
}

// Upper is Normalize with upper-casing, used for currency codes.
func Upper(values []string) []string {
	return Normalize(values, strings.ToUpper)
}

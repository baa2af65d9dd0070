// Package naming holds the filename normalization shared by template lookups, template uploads
// and generated report names.
package naming

import "strings"

// Slug lowercases s, keeps ASCII letters and digits, and collapses every run of other
// characters into a single underscore. Leading and trailing separators are trimmed.
func Slug(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pending := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	return b.String()
}

// SlugOr returns Slug(s), or fallback when s normalizes to nothing.
func SlugOr(s, fallback string) string {
	if slug := Slug(s); slug != "" {
		return slug
	}
	return fallback
}

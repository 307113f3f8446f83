package loader

import (
	"strings"
	"unicode"
)

// NormalizeName converts a raw column header into its canonical form:
//
//  1. leading/trailing whitespace stripped
//  2. lowercased
//  3. every run of interior whitespace collapsed to a single underscore
//
// The transformation is cosmetic only and idempotent. It is applied
// independently per column; duplicate normalized names are not deduplicated
// (when they collide in downstream maps, the last column wins).
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ToLower(name)

	var b strings.Builder
	b.Grow(len(name))

	inSpace := false
	for _, r := range name {
		if unicode.IsSpace(r) {
			inSpace = true
			continue
		}
		if inSpace {
			b.WriteByte('_')
			inSpace = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

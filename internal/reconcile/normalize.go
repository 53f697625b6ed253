package reconcile

import "strings"

// NormalizedName is the join key between the roster and the check-in log:
// the lower-cased, trimmed form of a guest's display name.
type NormalizedName string

// Normalize canonicalizes a free-text guest name into a NormalizedName.
// Blank input yields the empty key, which no record may use.
func Normalize(name string) NormalizedName {
	return NormalizedName(strings.ToLower(strings.TrimSpace(name)))
}

package evidence

import "strings"

// NormalizeLabel folds a label into its canonical comparison form:
// lowercase, trimmed, inner whitespace collapsed.
func NormalizeLabel(label string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(label))), " ")
}

// SameLabel reports whether two labels are equivalent after
// normalization. Empty labels never match anything.
func SameLabel(a, b string) bool {
	na, nb := NormalizeLabel(a), NormalizeLabel(b)
	if na == "" || nb == "" {
		return false
	}
	return na == nb
}

// InAllowedSet reports whether label matches any entry of the allowed
// label list.
func InAllowedSet(label string, allowed []string) bool {
	for _, a := range allowed {
		if SameLabel(label, a) {
			return true
		}
	}
	return false
}

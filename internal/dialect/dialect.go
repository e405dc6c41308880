// Package dialect parses Python source units and classifies decorator
// sites against the restricted pre-3.9 decorator grammar (a dotted name
// with at most one trailing call). Sites that use the 3.9+ relaxed grammar
// are flagged for rewriting.
package dialect

// SourceVersions lists the grammar versions that permit relaxed decorator
// expressions, oldest first.
var SourceVersions = []string{"3.9", "3.10", "3.11", "3.12", "3.13"}

// DefaultSourceVersion is the newest supported grammar version.
var DefaultSourceVersion = SourceVersions[len(SourceVersions)-1]

// SupportedSourceVersion reports whether v names a supported grammar
// version.
func SupportedSourceVersion(v string) bool {
	for _, s := range SourceVersions {
		if s == v {
			return true
		}
	}
	return false
}

package textutil

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeName folds compatibility characters (NFKC) and collapses
// whitespace, so the same person typed two ways counts once.
func NormalizeName(name string) string {
	name = norm.NFKC.String(name)
	name = strings.TrimSpace(name)
	return whitespaceRegex.ReplaceAllString(name, " ")
}

// MatchKey is the form names are compared in: normalized, lowercase and
// without whitespace.
func MatchKey(name string) string {
	name = strings.ToLower(NormalizeName(name))
	return whitespaceRegex.ReplaceAllString(name, "")
}

// MatchName reports whether the name contains any of the matchers, the
// matchers are expected in MatchKey form.
func MatchName(name string, matchers []string) bool {
	name = MatchKey(name)
	for _, m := range matchers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}

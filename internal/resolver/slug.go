package resolver

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	nonSlug       = regexp.MustCompile(`[^\w-]`)
)

// Slug normalizes a country label into its identity key: compatibility
// decomposition with combining marks dropped, lowercased, whitespace runs
// turned into "-", and everything but ASCII word characters and "-" removed.
// "Türkiye", "TÜRKİYE" and "Turkiye" all become "turkiye".
func Slug(label string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	folded, _, err := transform.String(t, strings.TrimSpace(label))
	if err != nil {
		folded = strings.TrimSpace(label)
	}
	folded = strings.ToLower(folded)
	folded = whitespaceRun.ReplaceAllString(folded, "-")
	return nonSlug.ReplaceAllString(folded, "")
}

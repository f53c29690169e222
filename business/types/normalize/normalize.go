// Package normalize provides the canonical form used for uniqueness keys.
// Usernames, emails, role names and section names are unique per tenant on
// their normalized value, not on the raw input.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Key lowercases the value and strips diacritic marks so that "Ação" and
// "acao" collide on the same uniqueness key.
func Key(value string) string {
	folded, _, err := transform.String(stripper, value)
	if err != nil {
		folded = value
	}

	return strings.ToLower(strings.TrimSpace(folded))
}

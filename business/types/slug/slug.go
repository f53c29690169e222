// Package slug represents the unique external identifier of a tenant, used
// as the subdomain label and in path based resolution.
package slug

import (
	"fmt"
	"regexp"
)

// reserved labels can never identify a tenant.
var reserved = map[string]struct{}{
	"www":       {},
	"api":       {},
	"admin":     {},
	"localhost": {},
}

var slugRegEx = regexp.MustCompile("^[a-z0-9]([a-z0-9-]{0,38}[a-z0-9])?$")

// Slug represents a tenant identifier in the system.
type Slug struct {
	value string
}

// String returns the value of the slug.
func (s Slug) String() string {
	return s.value
}

// Equal provides support for the go-cmp package and testing.
func (s Slug) Equal(s2 Slug) bool {
	return s.value == s2.value
}

// MarshalText provides support for logging and any marshal needs.
func (s Slug) MarshalText() ([]byte, error) {
	return []byte(s.value), nil
}

// =============================================================================

// Parse parses the string value and returns a slug if the value complies
// with the rules for a slug.
func Parse(value string) (Slug, error) {
	if !slugRegEx.MatchString(value) {
		return Slug{}, fmt.Errorf("invalid slug %q", value)
	}

	if _, exists := reserved[value]; exists {
		return Slug{}, fmt.Errorf("reserved slug %q", value)
	}

	return Slug{value}, nil
}

// MustParse parses the string value and returns a slug if the value
// complies with the rules for a slug. If an error occurs the function panics.
func MustParse(value string) Slug {
	slug, err := Parse(value)
	if err != nil {
		panic(err)
	}

	return slug
}

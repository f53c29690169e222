// Package username represents a username in the system.
package username

import (
	"fmt"
	"regexp"
)

// Username represents a login name and provides validation on construction.
type Username struct {
	value string
}

var usernameRegEx = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{2,29}$`)

// Parse parses the string value and returns a username if the value complies
// with the rules for a username.
func Parse(value string) (Username, error) {
	if !usernameRegEx.MatchString(value) {
		return Username{}, fmt.Errorf("invalid username %q", value)
	}

	return Username{value}, nil
}

// MustParse parses the string value and returns a username if the value
// complies with the rules for a username. If an error occurs the function
// panics.
func MustParse(value string) Username {
	u, err := Parse(value)
	if err != nil {
		panic(err)
	}

	return u
}

// String returns the value of the username.
func (u Username) String() string {
	return u.value
}

// Equal provides support for the go-cmp package and testing.
func (u Username) Equal(u2 Username) bool {
	return u.value == u2.value
}

// MarshalText provides support for logging and any marshal needs.
func (u Username) MarshalText() ([]byte, error) {
	return []byte(u.value), nil
}

// Package password represents a raw password in the system. The value is
// opaque to the rest of the core; only the bcrypt hash is ever persisted.
package password

import "fmt"

// Password represents a password in the system.
type Password struct {
	value string
}

// String returns a masked representation so a raw password can never reach
// a log line.
func (p Password) String() string {
	return "********"
}

// Bytes returns the raw value for hashing.
func (p Password) Bytes() []byte {
	return []byte(p.value)
}

// =============================================================================

// Parse parses the string value and returns a password if the value
// complies with the rules for a password.
func Parse(value string) (Password, error) {
	if len(value) < 8 || len(value) > 72 {
		return Password{}, fmt.Errorf("password must be between 8 and 72 characters")
	}

	return Password{value}, nil
}

// MustParse parses the string value and returns a password if the value
// complies with the rules for a password. If an error occurs the function
// panics.
func MustParse(value string) Password {
	pass, err := Parse(value)
	if err != nil {
		panic(err)
	}

	return pass
}

package redactor

import (
	"crypto/subtle"
	"encoding/json"
)

const mask = "********"

// String holds a secret, i.e. the dashboard password. It never marshals to JSON and prints masked.
type String string

// MarshalJSON implements json.Marshaler
func (s String) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (s *String) UnmarshalJSON(b []byte) error {
	var value string
	if err := json.Unmarshal(b, &value); err != nil {
		return err
	}
	*s = String(value)
	return nil
}

// String implements fmt.Stringer so secrets stay out of logs
func (s String) String() string {
	if s == "" {
		return ""
	}
	return mask
}

// Equal compares s against a candidate in constant time
func (s String) Equal(candidate String) bool {
	return subtle.ConstantTimeCompare([]byte(s), []byte(candidate)) == 1
}

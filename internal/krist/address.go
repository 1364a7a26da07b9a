// Package krist defines the value types of the Krist mining protocol.
package krist

import (
	"fmt"
	"strings"
)

// AddressLength is the length of a Krist address in bytes.
const AddressLength = 10

// Character sets for v1 and v2 addresses. v2 addresses start with 'k'.
const (
	v1Chars = "1234567890abcdef"
	v2Chars = "1234567890abcdefghijklmnopqrstuvwxyz"
)

// Address is a fixed-length Krist address.
type Address [AddressLength]byte

// ParseAddress parses and validates a Krist address string. Both v1 (hex)
// and v2 ('k' prefixed) addresses are accepted.
func ParseAddress(s string) (Address, error) {
	var a Address
	if len(s) != AddressLength {
		return a, fmt.Errorf("invalid address length: %d", len(s))
	}

	allowed := v1Chars
	if s[0] == 'k' {
		allowed = v2Chars
	}
	for i, c := range s {
		if !strings.ContainsRune(allowed, c) {
			return a, fmt.Errorf("illegal character %q at index %d", c, i)
		}
	}

	copy(a[:], s)
	return a, nil
}

// AddressFromBytes builds an Address from raw bytes. Only the length is
// checked; character classes are a parse-time concern.
func AddressFromBytes(b []byte) (Address, error) {
	var a Address
	if len(b) != AddressLength {
		return a, fmt.Errorf("invalid address length: %d", len(b))
	}
	copy(a[:], b)
	return a, nil
}

// String returns the address as a string.
func (a Address) String() string {
	return string(a[:])
}

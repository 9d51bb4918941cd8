package types

import (
	"fmt"
	"regexp"
)

// NationalID represents a 10-digit national identification number
// with a Mod 11 checksum in the last position.
type NationalID string

var nationalIDRegex = regexp.MustCompile(`^\d{10}$`)

// ParseNationalID validates and parses a national ID string
func ParseNationalID(s string) (NationalID, error) {
	if !nationalIDRegex.MatchString(s) {
		return "", fmt.Errorf("national ID must be exactly 10 digits")
	}

	nid := NationalID(s)
	if !nid.IsValid() {
		return "", fmt.Errorf("invalid national ID checksum")
	}

	return nid, nil
}

// String returns the string representation
func (n NationalID) String() string {
	return string(n)
}

// Masked returns a masked version for display (last 4 digits visible)
func (n NationalID) Masked() string {
	if len(n) < 10 {
		return "**********"
	}
	return "******" + string(n)[6:]
}

// IsValid validates the national ID checksum
func (n NationalID) IsValid() bool {
	if len(n) != 10 {
		return false
	}

	digits := make([]int, 10)
	allEqual := true
	for i, c := range n {
		digits[i] = int(c - '0')
		if digits[i] != digits[0] {
			allEqual = false
		}
	}

	// Sequences of a single repeated digit pass the checksum but are
	// not real identifiers
	if allEqual {
		return false
	}

	sum := 0
	for i := 0; i < 9; i++ {
		sum += digits[i] * (10 - i)
	}

	remainder := sum % 11
	check := digits[9]
	if remainder < 2 {
		return check == remainder
	}
	return check == 11-remainder
}

// IsZero checks if the national ID is empty
func (n NationalID) IsZero() bool {
	return n == ""
}

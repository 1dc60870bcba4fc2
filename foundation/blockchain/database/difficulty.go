package database

import "strings"

// hashLength is the number of hex characters in a SHA-256 hash.
const hashLength = 64

// IsHashSolved checks the hash to make sure it complies with the POW rules.
// We need to match a difficulty number of leading 0's.
func IsHashSolved(difficulty uint16, hash string) bool {
	if len(hash) != hashLength {
		return false
	}

	if int(difficulty) > hashLength {
		return false
	}

	return strings.Count(hash[:difficulty], "0") == int(difficulty)
}

// isHash validates the value is a lowercase hex encoded SHA-256 hash.
func isHash(value string) bool {
	if len(value) != hashLength {
		return false
	}

	for i := 0; i < len(value); i++ {
		c := value[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}

	return true
}

package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateRandomHex returns 2n lowercase hex characters.
func GenerateRandomHex(n int) (string, error) {
	bytes := make([]byte, n)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// ShortSuffix is the 6 character disambiguator appended to output names.
func ShortSuffix() (string, error) {
	return GenerateRandomHex(3)
}

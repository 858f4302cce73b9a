package models

import (
	"regexp"
)

// MinPasswordLength is the shortest password accepted anywhere
const MinPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether email has the local@domain.tld shape
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidPassword reports whether password is long enough
func ValidPassword(password string) bool {
	return len([]rune(password)) >= MinPasswordLength
}

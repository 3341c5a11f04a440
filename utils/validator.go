// utils/validator.go - Input validation
package utils

import (
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail checks if email is valid
func ValidateEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// ParseRecipients splits a comma or semicolon separated address list and
// returns the valid addresses alongside the rejected ones.
func ParseRecipients(raw string) (valid []string, rejected []string) {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';'
	})
	for _, field := range fields {
		addr := SanitizeInput(field)
		if addr == "" {
			continue
		}
		if ValidateEmail(addr) {
			valid = append(valid, addr)
		} else {
			rejected = append(rejected, addr)
		}
	}
	return valid, rejected
}

// SanitizeInput removes potentially harmful characters
func SanitizeInput(input string) string {
	// Remove leading/trailing spaces
	input = strings.TrimSpace(input)

	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	return input
}

package middleware

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxQueryLength bounds a free-text scan request.
const MaxQueryLength = 1024

var ErrInvalidQuery = errors.New("invalid query")

// ValidateQuery checks a sanitized scan request before it reaches the planner
func ValidateQuery(q string) error {
	if strings.TrimSpace(q) == "" {
		return fmt.Errorf("%w: query cannot be empty", ErrInvalidQuery)
	}
	if !utf8.ValidString(q) {
		return fmt.Errorf("%w: query is not valid UTF-8", ErrInvalidQuery)
	}
	if n := utf8.RuneCountInString(q); n > MaxQueryLength {
		return fmt.Errorf("%w: query is %d characters (max %d)", ErrInvalidQuery, n, MaxQueryLength)
	}
	if strings.ContainsAny(q, "\n\r") {
		return fmt.Errorf("%w: query must be a single line", ErrInvalidQuery)
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

package utils

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxInputLength bounds user-supplied answers and vocabulary terms.
const MaxInputLength = 64

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// SanitizeInput strips control characters and trims surrounding whitespace.
func SanitizeInput(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// NormalizeAnswer folds an answer for comparison: trimmed, lowercased.
func NormalizeAnswer(answer string) string {
	return strings.ToLower(strings.TrimSpace(answer))
}

// ValidateTerm checks a vocabulary term or answer after sanitization.
func ValidateTerm(field, value string) error {
	if value == "" {
		return ValidationError{Field: field, Message: "must not be empty"}
	}
	if utf8.RuneCountInString(value) > MaxInputLength {
		return ValidationError{Field: field, Message: fmt.Sprintf("must be at most %d characters", MaxInputLength)}
	}
	return nil
}

// ValidateHTTPURL checks that the value is an absolute http or https URL.
func ValidateHTTPURL(raw string) error {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ValidationError{Field: "url", Message: "invalid URL"}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ValidationError{Field: "url", Message: "URL must use http or https"}
	}
	if parsed.Host == "" {
		return ValidationError{Field: "url", Message: "URL must include a host"}
	}
	return nil
}

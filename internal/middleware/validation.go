package middleware

import (
	"errors"
	"unicode/utf8"
)

const (
	maxThreadIDLength = 128
	maxPhoneLength    = 32
	maxQueryLength    = 256
)

// ValidateThreadID validates a thread id path parameter.
func ValidateThreadID(id string) error {
	if id == "" {
		return errors.New("thread ID cannot be empty")
	}
	if len(id) > maxThreadIDLength {
		return errors.New("thread ID exceeds maximum length")
	}
	for _, r := range id {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return errors.New("invalid thread ID format")
		}
	}
	return nil
}

// ValidatePhoneInput bounds a phone number a thread is created from. Digit
// counting happens in the store.
func ValidatePhoneInput(phone string) error {
	if len(phone) > maxPhoneLength {
		return errors.New("phone number exceeds maximum length")
	}
	if !utf8.ValidString(phone) {
		return errors.New("phone number must be valid UTF-8")
	}
	return nil
}

// ValidateSearchQuery bounds a search query.
func ValidateSearchQuery(q string) error {
	if len(q) > maxQueryLength {
		return errors.New("search query exceeds maximum length")
	}
	if !utf8.ValidString(q) {
		return errors.New("search query must be valid UTF-8")
	}
	return nil
}

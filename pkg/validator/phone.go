package validator

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrInvalidLength indicates phone number length is not 10 digits
	ErrInvalidLength = errors.New("phone number must be exactly 10 digits")

	// ErrInvalidPrefix indicates phone number doesn't start with a valid Ugandan mobile prefix
	ErrInvalidPrefix = errors.New("phone number must start with 070, 074, 075, 076, 077 or 078")

	// ErrInvalidFormat indicates phone number contains invalid characters
	ErrInvalidFormat = errors.New("phone number can only contain digits")

	// ErrEmptyPhone indicates phone number is empty
	ErrEmptyPhone = errors.New("phone number cannot be empty")
)

// validPrefixes contains the Ugandan mobile operator prefixes we accept
var validPrefixes = []string{
	"070", // Airtel
	"074", // Airtel
	"075", // Airtel
	"076", // MTN
	"077", // MTN
	"078", // MTN
}

// mtnPrefixes are the prefixes settled through MTN Mobile Money
var mtnPrefixes = []string{"076", "077", "078"}

// phoneRegex matches digits only
var phoneRegex = regexp.MustCompile(`^\d+$`)

// PhoneValidator handles phone number validation
type PhoneValidator struct{}

// NewPhoneValidator creates a new phone validator instance
func NewPhoneValidator() *PhoneValidator {
	return &PhoneValidator{}
}

// Validate validates a Ugandan mobile number.
// Accepts 0771234567, 077 123 4567, 077-123-4567 or 256771234567.
// Returns the sanitized local-format number (digits only) and error if invalid.
func (v *PhoneValidator) Validate(phone string) (string, error) {
	if phone == "" {
		return "", ErrEmptyPhone
	}

	sanitized := v.Sanitize(phone)

	if !phoneRegex.MatchString(sanitized) {
		return "", ErrInvalidFormat
	}

	if len(sanitized) != 10 {
		return "", ErrInvalidLength
	}

	if !v.IsValidPrefix(sanitized) {
		return "", ErrInvalidPrefix
	}

	return sanitized, nil
}

// Sanitize removes separators and converts the 256 country code to local format
func (v *PhoneValidator) Sanitize(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r != ' ' && r != '-' && r != '.' && r != '(' && r != ')' && r != '+' {
			// Keep unexpected characters so format validation catches them
			b.WriteRune(r)
		}
	}
	sanitized := b.String()

	if strings.HasPrefix(sanitized, "256") && len(sanitized) == 12 {
		sanitized = "0" + sanitized[3:]
	}
	return sanitized
}

// IsValidPrefix checks whether the number starts with an accepted operator prefix
func (v *PhoneValidator) IsValidPrefix(phone string) bool {
	for _, prefix := range validPrefixes {
		if strings.HasPrefix(phone, prefix) {
			return true
		}
	}
	return false
}

// ProviderFor returns the mobile-money provider name ("mtn" or "airtel") for
// a sanitized local-format number. ok is false for unknown prefixes.
func (v *PhoneValidator) ProviderFor(phone string) (string, bool) {
	if !v.IsValidPrefix(phone) {
		return "", false
	}
	for _, prefix := range mtnPrefixes {
		if strings.HasPrefix(phone, prefix) {
			return "mtn", true
		}
	}
	return "airtel", true
}

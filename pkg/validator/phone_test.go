package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ValidNumbers(t *testing.T) {
	validator := NewPhoneValidator()

	validNumbers := []struct {
		input    string
		expected string
		name     string
	}{
		{"0771234567", "0771234567", "Standard format"},
		{"077 123 4567", "0771234567", "With spaces"},
		{"077-123-4567", "0771234567", "With dashes"},
		{"(077) 123 4567", "0771234567", "With parentheses"},
		{"0701234567", "0701234567", "Airtel 070"},
		{"0741234567", "0741234567", "Airtel 074"},
		{"0751234567", "0751234567", "Airtel 075"},
		{"0761234567", "0761234567", "MTN 076"},
		{"0781234567", "0781234567", "MTN 078"},
		{"256771234567", "0771234567", "With country code"},
		{"+256771234567", "0771234567", "With plus country code"},
	}

	for _, tc := range validNumbers {
		t.Run(tc.name, func(t *testing.T) {
			sanitized, err := validator.Validate(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, sanitized)
		})
	}
}

func TestValidate_InvalidNumbers(t *testing.T) {
	validator := NewPhoneValidator()

	invalidNumbers := []struct {
		input       string
		expectedErr error
		name        string
	}{
		{"", ErrEmptyPhone, "Empty string"},
		{"077123", ErrInvalidLength, "Too short"},
		{"07712345678", ErrInvalidLength, "Too long"},
		{"0711234567", ErrInvalidPrefix, "Unsupported prefix 071"},
		{"0791234567", ErrInvalidPrefix, "Unsupported prefix 079"},
		{"1234567890", ErrInvalidPrefix, "Valid length but invalid prefix"},
		{"077123456a", ErrInvalidFormat, "Contains letters"},
	}

	for _, tc := range invalidNumbers {
		t.Run(tc.name, func(t *testing.T) {
			_, err := validator.Validate(tc.input)
			require.Error(t, err)
			assert.Equal(t, tc.expectedErr, err)
		})
	}
}

func TestProviderFor(t *testing.T) {
	validator := NewPhoneValidator()

	tests := []struct {
		phone    string
		provider string
		ok       bool
	}{
		{"0771234567", "mtn", true},
		{"0761234567", "mtn", true},
		{"0781234567", "mtn", true},
		{"0701234567", "airtel", true},
		{"0741234567", "airtel", true},
		{"0751234567", "airtel", true},
		{"0791234567", "", false},
	}

	for _, tc := range tests {
		provider, ok := validator.ProviderFor(tc.phone)
		assert.Equal(t, tc.ok, ok, tc.phone)
		assert.Equal(t, tc.provider, provider, tc.phone)
	}
}

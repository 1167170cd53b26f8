package common

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@b.com", NormalizeEmail("  A@B.com "))
}

func TestValidateEmail(t *testing.T) {
	valid := []string{"john@example.com", "A@B.com", " jane.doe+tag@mail.example.org "}
	for _, email := range valid {
		assert.NoError(t, ValidateEmail(email), email)
	}

	invalid := []string{"", "   ", "bademail", "a@b", "@example.com", "john@@example.com"}
	for _, email := range invalid {
		assert.Error(t, ValidateEmail(email), email)
	}
}

func TestValidateMobile(t *testing.T) {
	valid := []string{"1234567890", "+1 (555) 123-4567", "020 7946 0958", " 5551234 "}
	for _, m := range valid {
		assert.NoError(t, ValidateMobile(m), m)
	}

	tests := []struct {
		input       string
		errContains string
	}{
		{"", "required"},
		{"12345", "between 7 and 15"},
		{"1234567890123456", "between 7 and 15"},
		{"555-CALL-NOW", "invalid"},
		{"12+34567890", "invalid"},
	}
	for _, tc := range tests {
		err := ValidateMobile(tc.input)
		if assert.Error(t, err, tc.input) {
			assert.Contains(t, err.Error(), tc.errContains)
		}
	}
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("John"))
	assert.Error(t, ValidateName("   "))
	assert.Error(t, ValidateName(strings.Repeat("x", 101)))
}

package common

import (
	"errors"
	"regexp"
	"strings"
)

var (
	emailRegex    = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)
	mobileRegex   = regexp.MustCompile(`^\+?[0-9 ().\-]+$`)
	mobileDigitRe = regexp.MustCompile(`[0-9]`)
)

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidateEmail(email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return errors.New("email is required")
	}
	if !emailRegex.MatchString(email) {
		return errors.New("invalid email format")
	}
	return nil
}

// ValidateMobile accepts 7-15 digits with an optional leading + and common separators.
func ValidateMobile(mobile string) error {
	mobile = strings.TrimSpace(mobile)
	if mobile == "" {
		return errors.New("mobile is required")
	}
	if !mobileRegex.MatchString(mobile) {
		return errors.New("invalid mobile number")
	}
	digits := len(mobileDigitRe.FindAllString(mobile, -1))
	if digits < 7 || digits > 15 {
		return errors.New("mobile number must have between 7 and 15 digits")
	}
	return nil
}

func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("is required")
	}
	if len(name) > 100 {
		return errors.New("must be at most 100 characters")
	}
	return nil
}

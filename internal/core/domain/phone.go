package domain

import "strings"

// LocalPhoneDigits is the length of a national phone number
const LocalPhoneDigits = 10

// DigitsOnly strips every non-digit character
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizePhone reduces raw input to exactly 10 national digits. Input that
// already carries the country prefix (e.g. "+91 98765 43210") is accepted.
func NormalizePhone(raw, countryPrefix string) (string, error) {
	digits := DigitsOnly(raw)
	prefix := DigitsOnly(countryPrefix)
	if prefix != "" && len(digits) == LocalPhoneDigits+len(prefix) && strings.HasPrefix(digits, prefix) {
		digits = digits[len(prefix):]
	}
	if len(digits) != LocalPhoneDigits {
		return "", NewValidationError("phone_number", "Valid 10-digit WhatsApp number is required")
	}
	return digits, nil
}

// LoginDigits takes the last 10 digits of whatever was typed on the login form
func LoginDigits(raw string) string {
	digits := DigitsOnly(raw)
	if len(digits) > LocalPhoneDigits {
		return digits[len(digits)-LocalPhoneDigits:]
	}
	return digits
}

// CanonicalPhone builds the stored form, e.g. "+919876543210"
func CanonicalPhone(countryPrefix, local string) string {
	return countryPrefix + local
}

// ChatDigits is the number handed to the chat link: every digit of the
// canonical phone, country code included.
func ChatDigits(canonical string) string {
	return DigitsOnly(canonical)
}

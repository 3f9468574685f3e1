// Package phone canonicalizes Indian mobile numbers used as natural keys for doctors and agents.
package phone

import (
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"

	"healthcare-crm-backend/pkg/apperr"
)

const (
	defaultRegion = "IN"
	countryCode   = "91"
	// Length of a canonical number.
	Length = 10
)

// Normalize strips whitespace and a leading country-code prefix and requires
// exactly 10 digits to remain.
func Normalize(raw string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)

	switch {
	case strings.HasPrefix(cleaned, "+"+countryCode):
		cleaned = strings.TrimPrefix(cleaned, "+"+countryCode)
	case len(cleaned) == Length+len(countryCode) && strings.HasPrefix(cleaned, countryCode):
		cleaned = strings.TrimPrefix(cleaned, countryCode)
	case len(cleaned) == Length+1 && strings.HasPrefix(cleaned, "0"):
		cleaned = cleaned[1:]
	}

	if len(cleaned) != Length {
		return "", apperr.InvalidValue("invalid phone number, expected 10 digits", raw)
	}
	for _, r := range cleaned {
		if r < '0' || r > '9' {
			return "", apperr.InvalidValue("invalid phone number, expected 10 digits", raw)
		}
	}
	return cleaned, nil
}

// IsValid reports whether raw normalizes to a canonical number.
func IsValid(raw string) bool {
	_, err := Normalize(raw)
	return err == nil
}

// E164 formats a canonical number for the messaging gateway.
func E164(normalized string) string {
	number, err := phonenumbers.Parse(normalized, defaultRegion)
	if err != nil || !phonenumbers.IsValidNumber(number) {
		return "+" + countryCode + normalized
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}

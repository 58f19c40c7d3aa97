package utils

import (
	"regexp"
	"strings"
)

var (
	// Accepts an optional leading "+", an optional "1" country code and
	// 9-14 further digits.
	phoneRegex = regexp.MustCompile(`^\+?1?\d{9,14}$`)

	nonPhoneChars = regexp.MustCompile(`[^\d+]`)
)

// SupportedCountryCodes lists the country-code prefixes the SMS provider
// can deliver to. Currently North America only.
var SupportedCountryCodes = []string{"+1"}

// ValidateAndFormat normalizes a raw phone number into international
// format. It strips everything that is not a digit or "+", defaults the
// country code to +1 and re-validates the result against the supported
// country list. Pure function, no side effects.
func ValidateAndFormat(raw string) (string, error) {
	if raw == "" {
		return "", ErrInvalidPhone
	}

	cleaned := nonPhoneChars.ReplaceAllString(raw, "")
	if !phoneRegex.MatchString(cleaned) {
		return "", ErrInvalidPhone
	}

	if !strings.HasPrefix(cleaned, "+") {
		if strings.HasPrefix(cleaned, "1") && len(cleaned) == 11 {
			// Already carries the country code.
			cleaned = "+" + cleaned
		} else {
			cleaned = "+1" + cleaned
		}
	}

	if !phoneRegex.MatchString(cleaned) {
		return "", ErrInvalidPhone
	}

	for _, cc := range SupportedCountryCodes {
		if strings.HasPrefix(cleaned, cc) {
			return cleaned, nil
		}
	}
	return "", ErrInvalidPhone
}

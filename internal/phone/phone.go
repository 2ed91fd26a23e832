// Package phone normalizes phone numbers into the canonical international
// form used as the matching key between debts and identities.
package phone

import (
	"fmt"
	"strings"
)

const (
	minDigits = 8
	maxDigits = 15
)

// Canonicalize converts raw input into the canonical +<country><subscriber>
// form. It strips common formatting characters (spaces, dashes, dots and
// parentheses) and accepts an international "00" prefix in place of "+".
//
// The result is "+" followed by 8 to 15 digits; anything else is rejected.
func Canonicalize(raw string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '.', '(', ')':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))

	if strings.HasPrefix(cleaned, "00") {
		cleaned = "+" + cleaned[2:]
	}

	if !strings.HasPrefix(cleaned, "+") {
		return "", fmt.Errorf("phone number must start with country code: %q", raw)
	}

	digits := cleaned[1:]
	if len(digits) < minDigits || len(digits) > maxDigits {
		return "", fmt.Errorf("phone number must have %d to %d digits, got %d", minDigits, maxDigits, len(digits))
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("phone number contains non-digit character: %q", raw)
		}
	}

	return "+" + digits, nil
}

// IsCanonical reports whether s is already in canonical form.
func IsCanonical(s string) bool {
	canonical, err := Canonicalize(s)
	return err == nil && canonical == s
}

package service

import "strings"

// IsValidE164 reports whether phone is a syntactically valid E.164 number:
// a leading +, a non-zero first digit and 8 to 15 digits total.
func IsValidE164(phone string) bool {
	if len(phone) < 9 || len(phone) > 16 {
		return false
	}
	if phone[0] != '+' {
		return false
	}
	digits := phone[1:]
	if digits[0] == '0' {
		return false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return false
		}
	}
	return true
}

// NormalizeE164 strips formatting characters and applies the default country
// prefix to national numbers that arrive without a leading +.
func NormalizeE164(phone, defaultCountryCode string) (string, error) {
	var b strings.Builder
	for _, r := range phone {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && b.Len() == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
			// formatting characters are dropped
		default:
			return "", ErrInvalidPhoneFormat
		}
	}

	cleaned := b.String()
	if cleaned == "" {
		return "", ErrInvalidPhoneFormat
	}

	if cleaned[0] != '+' {
		// National numbers commonly arrive with a leading zero.
		cleaned = defaultCountryCode + strings.TrimPrefix(cleaned, "0")
	}

	if !IsValidE164(cleaned) {
		return "", ErrInvalidPhoneFormat
	}
	return cleaned, nil
}

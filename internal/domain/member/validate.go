package member

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

// Format rules for intake fields.
var (
	dniPattern   = regexp.MustCompile(`^[0-9]{8}[A-Z]$`)
	phonePattern = regexp.MustCompile(`^[679][0-9]{8}$`)
	emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
)

// Validation errors. These are local and user-correctable; they never
// reach the sync layer.
var (
	ErrMissingFields = errors.New("all fields are required")
	ErrBadDNI        = errors.New("DNI must be 8 digits followed by an uppercase letter")
	ErrBadPhone      = errors.New("phone must be 9 digits starting with 6, 7 or 9")
	ErrBadEmail      = errors.New("email format is not valid")
	ErrBadIBAN       = errors.New("IBAN must be ES followed by 22 digits")
)

// NormalizeDNI trims and uppercases a national ID.
func NormalizeDNI(dni string) string {
	return strings.ToUpper(strings.TrimSpace(dni))
}

// NormalizePhone strips spaces from a phone number.
func NormalizePhone(phone string) string {
	return strings.ReplaceAll(strings.TrimSpace(phone), " ", "")
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeIBAN uppercases, strips spaces and prefixes "ES" if absent.
func NormalizeIBAN(iban string) string {
	clean := strings.ToUpper(strings.ReplaceAll(iban, " ", ""))
	if clean == "" {
		return clean
	}
	if !strings.HasPrefix(clean, "ES") {
		clean = "ES" + strings.ReplaceAll(clean, "ES", "")
	}
	return clean
}

// NormalizeLocality trims and capitalizes the first letter.
func NormalizeLocality(loc string) string {
	clean := strings.TrimSpace(loc)
	if clean == "" {
		return clean
	}
	runes := []rune(strings.ToLower(clean))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// ValidateIdentity checks the personal fields gathered in the first intake
// step. Inputs are expected pre-normalized.
// POST: Returns the first violated rule, nil if all pass
func ValidateIdentity(name, surname, dni, phone, email string) error {
	if name == "" || surname == "" || dni == "" || phone == "" || email == "" {
		return ErrMissingFields
	}
	if !dniPattern.MatchString(dni) {
		return ErrBadDNI
	}
	if !phonePattern.MatchString(phone) {
		return ErrBadPhone
	}
	if !emailPattern.MatchString(email) {
		return ErrBadEmail
	}
	return nil
}

// ValidateBanking checks the banking fields gathered in the second intake
// step. IBAN is expected pre-normalized (ES prefix applied).
func ValidateBanking(bank, holder, iban, locality string) error {
	if bank == "" || holder == "" || locality == "" {
		return ErrMissingFields
	}
	if len(iban) != 24 || !strings.HasPrefix(iban, "ES") {
		return ErrBadIBAN
	}
	for _, c := range iban[2:] {
		if c < '0' || c > '9' {
			return ErrBadIBAN
		}
	}
	return nil
}

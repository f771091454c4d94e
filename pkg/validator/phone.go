package validator

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrEmptyPhone indicates phone number is empty
	ErrEmptyPhone = errors.New("phone number cannot be empty")

	// ErrInvalidFormat indicates phone number contains invalid characters
	ErrInvalidFormat = errors.New("phone number can only contain digits, spaces, dashes, parentheses and a leading +")

	// ErrInvalidLength indicates the national number is not 10 or 11 digits
	ErrInvalidLength = errors.New("phone number must have a 2 digit area code followed by 8 or 9 digits")

	// ErrInvalidAreaCode indicates the area code (DDD) is out of range
	ErrInvalidAreaCode = errors.New("phone number has an invalid area code")

	// ErrInvalidMobile indicates an 11 digit number whose subscriber part does not start with 9
	ErrInvalidMobile = errors.New("mobile numbers must start with 9 after the area code")
)

// allowedChars matches the characters accepted before sanitizing
var allowedChars = regexp.MustCompile(`^\+?[\d\s\-().]+$`)

// PhoneValidator validates Brazilian phone numbers
type PhoneValidator struct{}

// NewPhoneValidator creates a new phone validator instance
func NewPhoneValidator() *PhoneValidator {
	return &PhoneValidator{}
}

// Validate validates a Brazilian phone number.
// Accepts (11) 98765-4321, 11987654321, +55 11 98765 4321 and landlines like (11) 3456-7890.
// Returns the number in E.164 format (+5511987654321).
func (v *PhoneValidator) Validate(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", ErrEmptyPhone
	}
	if !allowedChars.MatchString(phone) {
		return "", ErrInvalidFormat
	}

	digits := v.Sanitize(phone)
	if strings.HasPrefix(phone, "+") || len(digits) > 11 {
		if !strings.HasPrefix(digits, "55") {
			return "", ErrInvalidLength
		}
		digits = digits[2:]
	}

	if len(digits) != 10 && len(digits) != 11 {
		return "", ErrInvalidLength
	}
	if digits[0] == '0' || digits[1] == '0' {
		return "", ErrInvalidAreaCode
	}
	if len(digits) == 11 && digits[2] != '9' {
		return "", ErrInvalidMobile
	}

	return "+55" + digits, nil
}

// Sanitize removes all non-digit characters from phone number
func (v *PhoneValidator) Sanitize(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsMobile reports whether a valid number is a mobile line
func (v *PhoneValidator) IsMobile(phone string) bool {
	normalized, err := v.Validate(phone)
	if err != nil {
		return false
	}
	return len(normalized) == len("+55")+11
}
